package mvi

import "github.com/dshills/mviflow/internal/logging"

// ErrorHandler observes Handler failures. err is a *HandlerError or a
// *PanicError.
type ErrorHandler func(err error)

// Option configures a Flow.
type Option func(*flowConfig)

type flowConfig struct {
	logger       *logging.Logger
	sequential   bool
	errorHandler ErrorHandler
	stateEqual   any
}

func defaultFlowConfig() flowConfig {
	return flowConfig{
		logger: logging.NullLogger,
	}
}

// WithLogger sets the logger. The Flow tags it with component=mvi.
func WithLogger(l *logging.Logger) Option {
	return func(c *flowConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSequentialActions handles each Action of a binding to completion
// before the next one starts. By default invocations run concurrently.
func WithSequentialActions() Option {
	return func(c *flowConfig) {
		c.sequential = true
	}
}

// WithErrorHandler sets a callback for Handler errors and panics.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *flowConfig) {
		c.errorHandler = h
	}
}

// WithStateEquality suppresses publishing a reduced State equal to the
// current one. The type parameter must match the Flow's State type.
func WithStateEquality[S any](eq func(a, b S) bool) Option {
	return func(c *flowConfig) {
		c.stateEqual = eq
	}
}
