package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

// HeadlessConfig tunes the Chrome session.
type HeadlessConfig struct {
	UserAgent         string
	NavigationTimeout time.Duration
	// LoadDelay is waited after every navigation for client-side rendering.
	LoadDelay      time.Duration
	ViewportWidth  int64
	ViewportHeight int64
	// NudgeDelay separates the scroll-to-bottom from the follow-up wheel nudge.
	NudgeDelay time.Duration
}

func (c HeadlessConfig) withDefaults() HeadlessConfig {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 45 * time.Second
	}
	if c.LoadDelay < 0 {
		c.LoadDelay = 0
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1280
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 1200
	}
	if c.NudgeDelay <= 0 {
		c.NudgeDelay = 400 * time.Millisecond
	}
	return c
}

// Headless drives a single Chrome tab. Calls must not be issued concurrently.
type Headless struct {
	cfg             HeadlessConfig
	logger          *zap.Logger
	allocatorCancel context.CancelFunc
	tabCtx          context.Context
	tabCancel       context.CancelFunc
}

// NewHeadless launches Chrome and opens the tab used for the whole run.
func NewHeadless(cfg HeadlessConfig, logger *zap.Logger) (*Headless, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(int(cfg.ViewportWidth), int(cfg.ViewportHeight)),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocatorCtx)
	warmup := chromedp.ActionFunc(func(ctx context.Context) error {
		if err := emulation.SetDeviceMetricsOverride(cfg.ViewportWidth, cfg.ViewportHeight, 1, false).Do(ctx); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
		if cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
	if err := chromedp.Run(tabCtx, warmup); err != nil {
		tabCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Headless{
		cfg:             cfg,
		logger:          logger.Named("headless"),
		allocatorCancel: allocatorCancel,
		tabCtx:          tabCtx,
		tabCancel:       tabCancel,
	}, nil
}

// Close shuts the tab and the browser process.
func (h *Headless) Close() {
	if h == nil {
		return
	}
	h.tabCancel()
	h.allocatorCancel()
}

// run executes actions on the tab, bounded by the navigation timeout and by ctx.
func (h *Headless) run(ctx context.Context, actions ...chromedp.Action) error {
	taskCtx, cancel := context.WithTimeout(h.tabCtx, h.cfg.NavigationTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("chromedp run: %w", ctx.Err())
		}
		return fmt.Errorf("chromedp run: %w", err)
	}
	return nil
}

// Goto navigates the tab, waits for the body and the load delay, and captures
// the page.
func (h *Headless) Goto(ctx context.Context, rawURL string) (gazette.Snapshot, error) {
	err := h.run(ctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return gazette.Snapshot{}, &gazette.NavigationError{URL: rawURL, Err: err}
	}
	if err := sleep(ctx, h.cfg.LoadDelay); err != nil {
		return gazette.Snapshot{}, err
	}
	snap, err := h.Capture(ctx)
	if err != nil {
		return gazette.Snapshot{}, &gazette.NavigationError{URL: rawURL, Err: err}
	}
	h.logger.Debug("page loaded", zap.String("url", rawURL), zap.String("final_url", snap.URL))
	return snap, nil
}

// Capture serializes the current document.
func (h *Headless) Capture(ctx context.Context) (gazette.Snapshot, error) {
	var (
		snap gazette.Snapshot
		html string
	)
	err := h.run(ctx,
		chromedp.Location(&snap.URL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(heightScript, &snap.Height),
	)
	if err != nil {
		return gazette.Snapshot{}, fmt.Errorf("capture: %w", err)
	}
	snap.HTML = html
	return snap, nil
}

// Click activates the first element matching control and waits for the
// document body, which also covers clicks that navigate.
func (h *Headless) Click(ctx context.Context, control gazette.Control) (bool, error) {
	script, err := clickScript(control)
	if err != nil {
		return false, err
	}
	var clicked bool
	if err := h.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		if isContextDestroyed(err) {
			clicked = true
		} else {
			return false, err
		}
	}
	if !clicked {
		return false, nil
	}
	if err := h.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return true, err
	}
	return true, nil
}

// ScrollToBottom scrolls to the end of the document, then nudges once more for
// lazy loaders that react to wheel movement.
func (h *Headless) ScrollToBottom(ctx context.Context) (bool, error) {
	var scrolled bool
	if err := h.run(ctx, chromedp.Evaluate(scrollBottomScript, &scrolled)); err != nil {
		return false, err
	}
	if !scrolled {
		return false, nil
	}
	if err := sleep(ctx, h.cfg.NudgeDelay); err != nil {
		return true, err
	}
	if err := h.run(ctx, chromedp.Evaluate(scrollNudgeScript, nil)); err != nil {
		return true, err
	}
	return true, nil
}

// Wait blocks for d or until ctx is done.
func (h *Headless) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

// isContextDestroyed reports the evaluation error Chrome returns when a click
// navigated away before the script result was delivered.
func isContextDestroyed(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Execution context was destroyed")
}
