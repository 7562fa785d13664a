// Package memory provides an in-process record table for tests and dry runs.
package memory

import (
	"context"
	"sync"
)

// Table keeps rows in memory. It is safe for concurrent use.
type Table struct {
	mu        sync.RWMutex
	rows      [][]string
	appended  int
	appendErr error
}

// NewTable seeds the table with existing data rows.
func NewTable(seed ...[]string) *Table {
	t := &Table{}
	for _, row := range seed {
		t.rows = append(t.rows, cloneRow(row))
	}
	return t
}

// ReadAll returns a copy of every row.
func (t *Table) ReadAll(_ context.Context) ([][]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = cloneRow(row)
	}
	return out, nil
}

// Append stores a copy of row, or returns the configured append error.
func (t *Table) Append(_ context.Context, row []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.appendErr != nil {
		return t.appendErr
	}
	t.rows = append(t.rows, cloneRow(row))
	t.appended++
	return nil
}

// FailAppends makes every following Append return err. A nil err restores
// normal behavior.
func (t *Table) FailAppends(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.appendErr = err
}

// Appended returns how many rows were added through Append.
func (t *Table) Appended() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.appended
}

func cloneRow(row []string) []string {
	return append([]string(nil), row...)
}
