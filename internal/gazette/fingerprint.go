package gazette

import (
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/gazette-permits/internal/hash/sha256"
)

// FingerprintLength is the number of hex characters kept from the digest.
const FingerprintLength = 12

type fingerprintInput struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Fingerprint digests (SourceURL, Title, PublishedDate). It labels rows for
// traceability only; deduplication keys on SourceURL.
func Fingerprint(rec DetailRecord) (string, error) {
	return FingerprintWith(sha256.New(), rec)
}

// FingerprintWith digests the record using h.
func FingerprintWith(h Hasher, rec DetailRecord) (string, error) {
	payload, err := json.Marshal(fingerprintInput{
		URL:   rec.SourceURL,
		Title: rec.Title,
		Date:  rec.PublishedDate,
	})
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint input: %w", err)
	}
	sum, err := h.Hash(payload)
	if err != nil {
		return "", fmt.Errorf("hash fingerprint input: %w", err)
	}
	if len(sum) > FingerprintLength {
		sum = sum[:FingerprintLength]
	}
	return sum, nil
}
