package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

// errNoPage is returned when Capture or Click runs before any Goto.
var errNoPage = errors.New("no page loaded")

// StaticConfig controls the collector used for JS-free listings.
type StaticConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// Static fetches pages over plain HTTP with colly. It cannot execute scripts,
// so scrolling never loads more content and "next" controls are followed as
// links.
type Static struct {
	cfg     StaticConfig
	base    *colly.Collector
	logger  *zap.Logger
	current *gazette.Snapshot
}

// NewStatic builds a static browser.
func NewStatic(cfg StaticConfig, logger *zap.Logger) *Static {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Static{cfg: cfg, base: c, logger: logger.Named("static")}
}

// Goto fetches rawURL and makes it the current page.
func (s *Static) Goto(ctx context.Context, rawURL string) (gazette.Snapshot, error) {
	var (
		snap     gazette.Snapshot
		fetchErr error
	)
	collector := s.buildCollector(&snap, &fetchErr)
	if err := runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return gazette.Snapshot{}, &gazette.NavigationError{URL: rawURL, Err: err}
	}
	s.current = &snap
	s.logger.Debug("page loaded", zap.String("url", rawURL), zap.String("final_url", snap.URL))
	return snap, nil
}

func (s *Static) buildCollector(snap *gazette.Snapshot, fetchErr *error) *colly.Collector {
	collector := s.base.Clone()
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	if s.cfg.UserAgent != "" {
		collector.UserAgent = s.cfg.UserAgent
	}
	collector.SetRequestTimeout(s.cfg.Timeout)
	collector.OnResponse(func(r *colly.Response) {
		*snap = gazette.Snapshot{
			URL:  r.Request.URL.String(),
			HTML: string(r.Body),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
	return collector
}

func runCollector(ctx context.Context, collector *colly.Collector, rawURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

// Capture returns the current page as loaded.
func (s *Static) Capture(context.Context) (gazette.Snapshot, error) {
	if s.current == nil {
		return gazette.Snapshot{}, errNoPage
	}
	return *s.current, nil
}

// Click follows the href of the first element matching control. Elements
// without a usable href, or pointing back at the current page, do not count.
func (s *Static) Click(ctx context.Context, control gazette.Control) (bool, error) {
	if s.current == nil {
		return false, errNoPage
	}
	target, err := nextHref(*s.current, control)
	if err != nil || target == "" {
		return false, err
	}
	if _, err := s.Goto(ctx, target); err != nil {
		return true, err
	}
	return true, nil
}

// ScrollToBottom reports false: without scripts nothing loads lazily.
func (s *Static) ScrollToBottom(context.Context) (bool, error) {
	return false, nil
}

// Wait blocks for d or until ctx is done.
func (s *Static) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func nextHref(snap gazette.Snapshot, control gazette.Control) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return "", fmt.Errorf("parse current page: %w", err)
	}
	want := strings.ToLower(control.Text)
	var target string
	doc.Find(control.Selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if want != "" && !strings.Contains(strings.ToLower(el.Text()), want) {
			return true
		}
		href := strings.TrimSpace(el.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		target = gazette.ResolveURL(snap.URL, href)
		return false
	})
	if target == "" || sameDocument(target, snap.URL) {
		return "", nil
	}
	return target, nil
}

func sameDocument(a, b string) bool {
	na, errA := gazette.NormalizeURL(a)
	nb, errB := gazette.NormalizeURL(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return na == nb
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}
}
