package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

type stubTable struct {
	rows [][]string
	err  error
}

func (s stubTable) ReadAll(context.Context) ([][]string, error) { return s.rows, s.err }

func (s stubTable) Append(context.Context, []string) error { return nil }

func TestKeysFromRows(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"2025-08-29", "A", "1", "Aarau", "addr", "https://amtsblatt.ag.ch/ekab/1/publikation/", ""},
		{"2025-08-30", "B"},
		{"", "", "", "", "", "  "},
		{"2025-08-31", "C", "3", "Baden", "addr", " https://amtsblatt.ag.ch/ekab/3/publikation/ "},
	}

	keys := KeysFromRows(rows, gazette.ColumnSourceURL)
	require.Equal(t, 2, keys.Len())
	require.True(t, keys.Contains("https://amtsblatt.ag.ch/ekab/1/publikation/"))
	require.True(t, keys.Contains("https://amtsblatt.ag.ch/ekab/3/publikation/"))
	require.False(t, keys.Contains(""))

	require.Zero(t, KeysFromRows(rows, -1).Len())
	require.Zero(t, KeysFromRows(rows, 99).Len())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	keys, err := Load(context.Background(), stubTable{rows: [][]string{{"x"}, {"y"}}}, 0)
	require.NoError(t, err)
	require.Equal(t, 2, keys.Len())

	boom := errors.New("quota exceeded")
	_, err = Load(context.Background(), stubTable{err: boom}, 0)
	require.ErrorIs(t, err, gazette.ErrStoreUnavailable)
	require.ErrorIs(t, err, boom)
}

func TestDeduplicator(t *testing.T) {
	t.Parallel()

	const known = "https://amtsblatt.ag.ch/ekab/1/publikation/"
	const fresh = "https://amtsblatt.ag.ch/ekab/2/publikation/"

	d := New(NewKeySet(known))
	require.True(t, d.ShouldSkip(known))
	require.False(t, d.ShouldSkip(fresh))

	d.MarkAccepted(fresh)
	require.True(t, d.ShouldSkip(fresh), "second occurrence in the same run is skipped")
	require.Equal(t, 2, d.Known())

	d.Forget(fresh)
	require.False(t, d.ShouldSkip(fresh))
	require.False(t, New(nil).ShouldSkip(known))
}
