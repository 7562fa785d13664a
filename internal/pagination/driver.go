// Package pagination decides when a listing has been fully traversed.
package pagination

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

// State is the traversal state of a listing.
type State int

// Traversal states. Converged is terminal.
const (
	Scanning State = iota
	Advancing
	Converged
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Advancing:
		return "advancing"
	case Converged:
		return "converged"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Harvester absorbs the entries visible in a snapshot and returns the number of
// distinct entries collected so far.
type Harvester interface {
	Harvest(snap gazette.Snapshot) int
}

// HarvesterFunc adapts a function to Harvester.
type HarvesterFunc func(snap gazette.Snapshot) int

// Harvest calls f(snap).
func (f HarvesterFunc) Harvest(snap gazette.Snapshot) int { return f(snap) }

// Config tunes the convergence rules.
type Config struct {
	// Controls are tried in order before falling back to scrolling.
	Controls []gazette.Control
	// Scroll enables the scroll-to-bottom advance.
	Scroll bool
	// SettleDelay is waited after every executed advance.
	SettleDelay time.Duration
	// StagnationLimit is the number of consecutive non-progressing advances
	// after which the listing is converged.
	StagnationLimit int
	// MaxPages bounds the number of listing loads, the initial one included.
	MaxPages int
}

// DefaultConfig returns the gazette defaults.
func DefaultConfig() Config {
	return Config{
		Controls:        gazette.DefaultNextControls,
		Scroll:          true,
		SettleDelay:     time.Second,
		StagnationLimit: 3,
		MaxPages:        50,
	}
}

// Cycle is the outcome of one advance attempt.
type Cycle struct {
	// Action is the advance that executed: a control selector, "scroll" or empty.
	Action   string
	Entries  int
	Height   int64
	Progress bool
	Continue bool
}

// Driver runs the Scanning -> Advancing -> Converged state machine against a
// Browser. It is not safe for concurrent use.
type Driver struct {
	browser   gazette.Browser
	harvester Harvester
	cfg       Config
	logger    *zap.Logger

	state    State
	loads    int
	stagnant int
	entries  int
	height   int64
}

// NewDriver builds a driver. Zero config values fall back to DefaultConfig.
func NewDriver(browser gazette.Browser, harvester Harvester, cfg Config, logger *zap.Logger) *Driver {
	def := DefaultConfig()
	if cfg.Controls == nil {
		cfg.Controls = def.Controls
	}
	if cfg.StagnationLimit <= 0 {
		cfg.StagnationLimit = def.StagnationLimit
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		browser:   browser,
		harvester: harvester,
		cfg:       cfg,
		logger:    logger,
	}
}

// State returns the current traversal state.
func (d *Driver) State() State { return d.state }

// Pages returns the number of listing loads so far.
func (d *Driver) Pages() int { return d.loads }

// Start records the freshly loaded listing as the baseline.
func (d *Driver) Start(snap gazette.Snapshot) Cycle {
	d.state = Scanning
	d.loads = 1
	d.stagnant = 0
	d.entries = d.harvester.Harvest(snap)
	d.height = snap.Height
	c := Cycle{Entries: d.entries, Height: d.height, Continue: true}
	if d.loads >= d.cfg.MaxPages {
		d.state = Converged
		c.Continue = false
	}
	return c
}

// Advance performs one advance attempt and re-measures the listing. Errors
// from the browser are returned as-is and leave the state unchanged.
func (d *Driver) Advance(ctx context.Context) (Cycle, error) {
	if d.state == Converged {
		return d.cycle("", false), nil
	}
	if d.loads >= d.cfg.MaxPages {
		d.logger.Info("page ceiling reached", zap.Int("max_pages", d.cfg.MaxPages))
		return d.converge(""), nil
	}

	action, err := d.trigger(ctx)
	if err != nil {
		return Cycle{}, err
	}
	if action == "" {
		d.logger.Info("no advance control available", zap.Int("entries", d.entries))
		return d.converge(""), nil
	}
	d.state = Advancing

	if err := d.browser.Wait(ctx, d.cfg.SettleDelay); err != nil {
		return Cycle{}, err
	}
	snap, err := d.browser.Capture(ctx)
	if err != nil {
		return Cycle{}, err
	}

	count := d.harvester.Harvest(snap)
	progress := snap.Height > d.height || count > d.entries
	d.loads++
	d.entries = count
	if snap.Height > d.height {
		d.height = snap.Height
	}

	if progress {
		d.stagnant = 0
	} else {
		d.stagnant++
		d.logger.Debug("advance without progress",
			zap.String("action", action),
			zap.Int("stagnation", d.stagnant),
		)
		if d.stagnant >= d.cfg.StagnationLimit {
			d.logger.Info("listing stagnated", zap.Int("entries", d.entries), zap.Int("attempts", d.stagnant))
			c := d.converge(action)
			return c, nil
		}
	}
	d.state = Scanning

	c := d.cycle(action, true)
	c.Progress = progress
	return c, nil
}

// trigger executes the first available advance and returns its name.
func (d *Driver) trigger(ctx context.Context) (string, error) {
	for _, control := range d.cfg.Controls {
		clicked, err := d.browser.Click(ctx, control)
		if err != nil {
			return "", fmt.Errorf("click %s: %w", controlName(control), err)
		}
		if clicked {
			return controlName(control), nil
		}
	}
	if !d.cfg.Scroll {
		return "", nil
	}
	scrolled, err := d.browser.ScrollToBottom(ctx)
	if err != nil {
		return "", fmt.Errorf("scroll: %w", err)
	}
	if scrolled {
		return "scroll", nil
	}
	return "", nil
}

func (d *Driver) converge(action string) Cycle {
	d.state = Converged
	return d.cycle(action, false)
}

func (d *Driver) cycle(action string, cont bool) Cycle {
	return Cycle{Action: action, Entries: d.entries, Height: d.height, Continue: cont}
}

func controlName(c gazette.Control) string {
	if c.Text == "" {
		return c.Selector
	}
	return fmt.Sprintf("%s:%q", c.Selector, c.Text)
}
