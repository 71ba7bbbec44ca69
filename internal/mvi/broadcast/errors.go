package broadcast

import "errors"

// Sentinel errors for broadcast streams.
var (
	// ErrClosed is returned when a stream has been closed.
	ErrClosed = errors.New("broadcast stream is closed")

	// ErrCursorCancelled is returned by Next after the cursor was cancelled.
	ErrCursorCancelled = errors.New("broadcast cursor is cancelled")
)
