package pagination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

type fakeBrowser struct {
	clickable  map[gazette.Control]bool
	clickErr   error
	scrollable bool
	captures   []gazette.Snapshot

	clicks  []gazette.Control
	scrolls int
	waits   []time.Duration
}

func (f *fakeBrowser) Goto(context.Context, string) (gazette.Snapshot, error) {
	return gazette.Snapshot{}, errors.New("not used")
}

func (f *fakeBrowser) Capture(context.Context) (gazette.Snapshot, error) {
	if len(f.captures) == 0 {
		return gazette.Snapshot{}, errors.New("no capture scripted")
	}
	snap := f.captures[0]
	if len(f.captures) > 1 {
		f.captures = f.captures[1:]
	}
	return snap, nil
}

func (f *fakeBrowser) Click(_ context.Context, c gazette.Control) (bool, error) {
	f.clicks = append(f.clicks, c)
	if f.clickErr != nil {
		return false, f.clickErr
	}
	return f.clickable[c], nil
}

func (f *fakeBrowser) ScrollToBottom(context.Context) (bool, error) {
	f.scrolls++
	return f.scrollable, nil
}

func (f *fakeBrowser) Wait(_ context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return nil
}

// countByHTML treats the snapshot HTML length as the running entry total.
var countByHTML = HarvesterFunc(func(s gazette.Snapshot) int { return len(s.HTML) })

func TestDriverStaticPageConvergesAfterThreeAttempts(t *testing.T) {
	t.Parallel()

	static := gazette.Snapshot{HTML: "xx", Height: 900}
	b := &fakeBrowser{scrollable: true, captures: []gazette.Snapshot{static}}
	d := NewDriver(b, countByHTML, Config{Scroll: true, SettleDelay: time.Second}, nil)

	start := d.Start(static)
	require.True(t, start.Continue)
	require.Equal(t, 2, start.Entries)

	attempts := 0
	for d.State() != Converged {
		attempts++
		require.LessOrEqual(t, attempts, 10, "driver must terminate")
		c, err := d.Advance(context.Background())
		require.NoError(t, err)
		require.False(t, c.Progress)
		require.Equal(t, "scroll", c.Action)
	}

	require.Equal(t, 3, attempts)
	require.Equal(t, 3, b.scrolls)
	require.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, b.waits)
	require.Len(t, b.clicks, 3*len(gazette.DefaultNextControls))

	c, err := d.Advance(context.Background())
	require.NoError(t, err)
	require.False(t, c.Continue)
	require.Equal(t, 3, b.scrolls, "converged driver must not advance again")
}

func TestDriverNoAdvanceControlConvergesImmediately(t *testing.T) {
	t.Parallel()

	b := &fakeBrowser{}
	d := NewDriver(b, countByHTML, Config{Scroll: true}, nil)
	d.Start(gazette.Snapshot{HTML: "x"})

	c, err := d.Advance(context.Background())
	require.NoError(t, err)
	require.False(t, c.Continue)
	require.Equal(t, Converged, d.State())
	require.Equal(t, 1, c.Entries)
	require.Empty(t, b.waits)
}

func TestDriverProgressResetsStagnation(t *testing.T) {
	t.Parallel()

	b := &fakeBrowser{
		scrollable: true,
		captures: []gazette.Snapshot{
			{HTML: "a", Height: 100},
			{HTML: "a", Height: 100},
			{HTML: "ab", Height: 100},
			{HTML: "ab", Height: 250},
			{HTML: "ab", Height: 250},
		},
	}
	d := NewDriver(b, countByHTML, Config{Scroll: true}, nil)
	d.Start(gazette.Snapshot{HTML: "a", Height: 100})

	var progress []bool
	for d.State() != Converged {
		c, err := d.Advance(context.Background())
		require.NoError(t, err)
		progress = append(progress, c.Progress)
	}

	require.Equal(t, []bool{false, false, true, true, false, false, false}, progress)
	require.Equal(t, 8, d.Pages())
}

func TestDriverPrefersControlsInPriorityOrder(t *testing.T) {
	t.Parallel()

	weiter := gazette.Control{Selector: "a", Text: "Weiter"}
	pager := gazette.Control{Selector: ".pager__item--next a"}
	b := &fakeBrowser{
		clickable:  map[gazette.Control]bool{weiter: true, pager: true},
		scrollable: true,
		captures:   []gazette.Snapshot{{HTML: "page-two"}},
	}
	d := NewDriver(b, countByHTML, Config{}, nil)
	d.Start(gazette.Snapshot{HTML: "one"})

	c, err := d.Advance(context.Background())
	require.NoError(t, err)
	require.True(t, c.Continue)
	require.True(t, c.Progress)
	require.Equal(t, `a:"Weiter"`, c.Action)
	require.Equal(t, weiter, b.clicks[len(b.clicks)-1])
	require.Zero(t, b.scrolls)
}

func TestDriverPageCeiling(t *testing.T) {
	t.Parallel()

	b := &fakeBrowser{scrollable: true}
	for i := 1; i <= 10; i++ {
		b.captures = append(b.captures, gazette.Snapshot{Height: int64(i * 100)})
	}
	d := NewDriver(b, countByHTML, Config{Scroll: true, MaxPages: 3}, nil)
	d.Start(gazette.Snapshot{})

	cycles := 0
	for d.State() != Converged {
		_, err := d.Advance(context.Background())
		require.NoError(t, err)
		cycles++
	}
	require.Equal(t, 3, cycles)
	require.Equal(t, 3, d.Pages())
	require.Equal(t, 2, b.scrolls)
}

func TestDriverSinglePageCeiling(t *testing.T) {
	t.Parallel()

	d := NewDriver(&fakeBrowser{}, countByHTML, Config{MaxPages: 1}, nil)
	c := d.Start(gazette.Snapshot{HTML: "abc"})
	require.False(t, c.Continue)
	require.Equal(t, Converged, d.State())
}

func TestDriverClickErrorIsReturned(t *testing.T) {
	t.Parallel()

	boom := errors.New("target closed")
	d := NewDriver(&fakeBrowser{clickErr: boom}, countByHTML, Config{}, nil)
	d.Start(gazette.Snapshot{})

	_, err := d.Advance(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, Scanning, d.State())
}

func TestStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "scanning", Scanning.String())
	require.Equal(t, "advancing", Advancing.String())
	require.Equal(t, "converged", Converged.String())
	require.Equal(t, "state(9)", State(9).String())
}
