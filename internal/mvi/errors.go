package mvi

import (
	"errors"
	"fmt"
)

// Sentinel errors for the binder.
var (
	// ErrFlowTornDown is returned when a Flow's owning scope has ended.
	ErrFlowTornDown = errors.New("mvi flow is torn down")

	// ErrNilView is returned when a nil view is bound.
	ErrNilView = errors.New("view cannot be nil")

	// ErrHandlerPanic is matched by PanicError through errors.Is.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError wraps an error returned by a Handler.
type HandlerError struct {
	// Action is the Action the Handler was invoked with.
	Action any

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler failed for action %v: %v", e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic raised inside a Handler.
type PanicError struct {
	// Action is the Action the Handler was invoked with.
	Action any

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for action %v: %v", e.Action, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

// ReducerDomainError reports a Modification the Reducer cannot fold.
// It is raised as a panic and never recovered by the Flow.
type ReducerDomainError struct {
	// Modification is the rejected input.
	Modification any

	// Reason is the original panic value.
	Reason any
}

// Error implements the error interface.
func (e *ReducerDomainError) Error() string {
	return fmt.Sprintf("reducer cannot apply modification %v: %v", e.Modification, e.Reason)
}

// RejectModification aborts a Reducer for an input outside its domain.
func RejectModification(mod any, reason string) {
	panic(&ReducerDomainError{Modification: mod, Reason: reason})
}

func isReducerDomainError(v any) bool {
	_, ok := v.(*ReducerDomainError)
	return ok
}
