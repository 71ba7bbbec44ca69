package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Executor runs invocations with panic recovery and timing.
type Executor struct {
	panicHandler PanicHandler
	fatal        func(panicValue any) bool
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPanicHandler sets the callback for recovered panics.
func WithPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// WithFatal marks panic values that must not be recovered.
// Matching panics are re-raised after the Result bookkeeping.
func WithFatal(isFatal func(panicValue any) bool) ExecutorOption {
	return func(e *Executor) {
		e.fatal = isFatal
	}
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs fn and returns the result.
func (e *Executor) Execute(ctx context.Context, fn Func) (result Result) {
	select {
	case <-ctx.Done():
		return Result{
			Error:   ctx.Err(),
			Skipped: true,
		}
	default:
	}

	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		r := recover()
		if r == nil {
			return
		}
		if e.fatal != nil && e.fatal(r) {
			panic(r)
		}

		stack := debug.Stack()
		result.Success = false
		result.Error = nil
		result.Panicked = true
		result.PanicValue = r
		result.PanicStack = stack

		if e.panicHandler != nil {
			func() {
				// The panic handler must not take the process down.
				defer func() { _ = recover() }()
				e.panicHandler(r, stack)
			}()
		}
	}()

	if err := fn(ctx); err != nil {
		result.Error = err
		return result
	}

	result.Success = true
	return result
}
