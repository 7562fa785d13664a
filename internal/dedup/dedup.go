// Package dedup tracks which source URLs are already known to the external
// store.
package dedup

import (
	"context"
	"fmt"
	"strings"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

// KeySet is the set of source URLs already present in the store, extended in
// memory as records are accepted. It has a single owner and no locking.
type KeySet struct {
	keys map[string]struct{}
}

// NewKeySet seeds a set with keys. Blank keys are ignored.
func NewKeySet(keys ...string) *KeySet {
	s := &KeySet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// KeysFromRows collects the trimmed, non-empty values of column from rows.
// Rows too short to reach the column are skipped.
func KeysFromRows(rows [][]string, column int) *KeySet {
	s := NewKeySet()
	for _, row := range rows {
		if column < 0 || column >= len(row) {
			continue
		}
		s.Add(row[column])
	}
	return s
}

// Load reads the table once and builds the key set from column. A read
// failure wraps gazette.ErrStoreUnavailable.
func Load(ctx context.Context, table gazette.Table, column int) (*KeySet, error) {
	rows, err := table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read existing keys: %w", gazette.ErrStoreUnavailable, err)
	}
	return KeysFromRows(rows, column), nil
}

// Add inserts key.
func (s *KeySet) Add(key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	s.keys[key] = struct{}{}
}

// Remove deletes key.
func (s *KeySet) Remove(key string) {
	delete(s.keys, strings.TrimSpace(key))
}

// Contains reports whether key is known.
func (s *KeySet) Contains(key string) bool {
	_, ok := s.keys[strings.TrimSpace(key)]
	return ok
}

// Len returns the number of known keys.
func (s *KeySet) Len() int { return len(s.keys) }

// Deduplicator answers "already known?" for candidate and confirmed source URLs.
type Deduplicator struct {
	keys *KeySet
}

// New wraps keys. A nil set starts empty.
func New(keys *KeySet) *Deduplicator {
	if keys == nil {
		keys = NewKeySet()
	}
	return &Deduplicator{keys: keys}
}

// ShouldSkip reports whether sourceURL is already in the set. Empty URLs are
// never skipped here; callers exclude them earlier.
func (d *Deduplicator) ShouldSkip(sourceURL string) bool {
	return d.keys.Contains(sourceURL)
}

// MarkAccepted records sourceURL so no later record in the run reuses it.
func (d *Deduplicator) MarkAccepted(sourceURL string) {
	d.keys.Add(sourceURL)
}

// Forget drops a key accepted in this run so a later duplicate may retry it.
func (d *Deduplicator) Forget(sourceURL string) {
	d.keys.Remove(sourceURL)
}

// Known returns the size of the key set.
func (d *Deduplicator) Known() int { return d.keys.Len() }
