package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableReadAppend(t *testing.T) {
	t.Parallel()

	seed := []string{"2025-08-29", "Baugesuch"}
	table := NewTable(seed)
	seed[0] = "mutated"

	require.NoError(t, table.Append(context.Background(), []string{"2025-08-30", "Rodung"}))

	rows, err := table.ReadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, [][]string{{"2025-08-29", "Baugesuch"}, {"2025-08-30", "Rodung"}}, rows)
	require.Equal(t, 1, table.Appended())

	rows[0][0] = "changed"
	again, err := table.ReadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025-08-29", again[0][0])
}

func TestTableFailAppends(t *testing.T) {
	t.Parallel()

	boom := errors.New("read only")
	table := NewTable()
	table.FailAppends(boom)
	require.ErrorIs(t, table.Append(context.Background(), []string{"x"}), boom)
	require.Zero(t, table.Appended())

	table.FailAppends(nil)
	require.NoError(t, table.Append(context.Background(), []string{"x"}))
	require.Equal(t, 1, table.Appended())
}
