package gazette

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the origin relative links are resolved against.
const DefaultBaseURL = "https://amtsblatt.ag.ch"

// DefaultStartURL is the building-permit listing filtered to new apartment
// buildings.
const DefaultStartURL = "https://amtsblatt.ag.ch/publikationen/?filter%5Bcategory%5D%5B0%5D=190%2C193" +
	"&filter%5Btype%5D%5B0%5D=tx_ekab_publication_domain_model_publication" +
	"&searchQuery=mehrfamilienhaus&timerange%5Btype%5D=4"

// ResolveURL turns href into an absolute URL against base. Absolute hrefs are
// returned unchanged and an empty href stays empty.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimSuffix(base, "/") + href
	}
	return baseURL.ResolveReference(ref).String()
}

// NormalizeURL standardizes a URL for logging and comparison.
// It lowercases the scheme and host, removes default ports, and drops fragments.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	return u.String(), nil
}

// Origin returns scheme://host of rawURL, or "" when it cannot be parsed.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
