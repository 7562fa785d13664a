// Package sink appends accepted records to the external table.
package sink

import (
	"context"

	"github.com/JakeFAU/gazette-permits/internal/gazette"
	"github.com/JakeFAU/gazette-permits/internal/hash/sha256"
)

// Writer maps records to rows and appends them one at a time.
type Writer struct {
	table  gazette.Table
	hasher gazette.Hasher
}

// NewWriter builds a writer over table. A nil hasher selects SHA-256.
func NewWriter(table gazette.Table, hasher gazette.Hasher) *Writer {
	if hasher == nil {
		hasher = sha256.New()
	}
	return &Writer{table: table, hasher: hasher}
}

// Append writes rec as a single row and returns its fingerprint. Any failure is
// a *gazette.SinkWriteError.
func (w *Writer) Append(ctx context.Context, rec gazette.DetailRecord) (string, error) {
	fp, err := gazette.FingerprintWith(w.hasher, rec)
	if err != nil {
		return "", &gazette.SinkWriteError{SourceURL: rec.SourceURL, Err: err}
	}
	if err := w.table.Append(ctx, gazette.ToRow(rec, fp)); err != nil {
		return fp, &gazette.SinkWriteError{SourceURL: rec.SourceURL, Err: err}
	}
	return fp, nil
}
