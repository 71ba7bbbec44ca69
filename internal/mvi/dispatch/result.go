package dispatch

import (
	"context"
	"time"
)

// Func is one unit of handler work.
type Func func(ctx context.Context) error

// Result represents the outcome of an invocation.
type Result struct {
	// Success is true if the invocation completed without error or panic.
	Success bool

	// Error is the error returned by the invocation, if any.
	Error error

	// Panicked is true if the invocation panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the invocation took.
	Duration time.Duration

	// Skipped is true if the invocation never ran (context already done).
	Skipped bool
}

// IsSuccess returns true if the result indicates successful execution.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// IsError returns true if the result indicates an error (not panic).
func (r Result) IsError() bool {
	return r.Error != nil && !r.Panicked
}

// IsPanic returns true if the result indicates a panic.
func (r Result) IsPanic() bool {
	return r.Panicked
}

// PanicHandler is called when an invocation panics.
type PanicHandler func(panicValue any, stack []byte)
