package gazette

import (
	"context"
	"io"
	"time"
)

// Browser is the navigation/DOM collaborator. Every call is a suspension point
// and calls are never issued concurrently.
type Browser interface {
	// Goto loads rawURL and returns the settled snapshot.
	Goto(ctx context.Context, rawURL string) (Snapshot, error)
	// Capture re-reads the current page without navigating.
	Capture(ctx context.Context) (Snapshot, error)
	// Click activates the first element matching control. It reports false
	// when no element matches.
	Click(ctx context.Context, control Control) (bool, error)
	// ScrollToBottom emits a scroll-to-bottom signal. It reports false when the
	// browser cannot scroll.
	ScrollToBottom(ctx context.Context) (bool, error)
	// Wait blocks for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error
}

// Table is the external tabular store.
type Table interface {
	// ReadAll returns every data row (header rows excluded).
	ReadAll(ctx context.Context) ([][]string, error)
	// Append adds one row at the end of the table.
	Append(ctx context.Context, row []string) error
}

// BlobStore archives raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes written-record notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for fingerprints.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
