package gazette

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks missing or invalid run parameters. It is fatal and
// raised before any network access.
var ErrConfiguration = errors.New("configuration error")

// ErrStoreUnavailable marks a failure to read the existing-key snapshot.
var ErrStoreUnavailable = errors.New("external store unavailable")

// NavigationError reports a page that failed to load.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// SinkWriteError reports a failed append. The record is absent from the store
// and will be reconsidered on the next run.
type SinkWriteError struct {
	SourceURL string
	Err       error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("append %s: %v", e.SourceURL, e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}
