package mvi

import "context"

// Reducer folds a Modification into a State.
// It must be pure and total over the Modifications its Handler emits.
type Reducer[S, M any] func(state S, mod M) S

// Emitter accepts values produced by a Handler.
type Emitter[T any] interface {
	// Emit hands v to the Flow. It returns an error when the value was not
	// accepted because the invocation or the Flow has been cancelled.
	Emit(v T) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc[T any] func(v T) error

// Emit calls f(v).
func (f EmitterFunc[T]) Emit(v T) error {
	return f(v)
}

// Handler turns an Action into Modifications and SideEffects.
//
// state is the State current when the invocation started. The Handler may do
// asynchronous work before emitting; ctx is cancelled when the binding or the
// Flow is torn down.
type Handler[S, A, M, E any] func(ctx context.Context, mods Emitter[M], state S, action A, effects Emitter[E]) error

// StateRenderer receives State snapshots.
type StateRenderer[S any] interface {
	Render(state S)
}

// SideEffectRenderer receives one-shot SideEffects.
type SideEffectRenderer[E any] interface {
	SideEffect(effect E)
}

// ActionSource produces the Actions of a view.
// Closing the returned channel ends the action stream; a nil channel means
// the view only contributes the initial Actions given at bind time.
type ActionSource[A any] interface {
	Actions(ctx context.Context) <-chan A
}

// RenderView is everything a view must provide to bind to a Flow.
type RenderView[S, A, E any] interface {
	StateRenderer[S]
	SideEffectRenderer[E]
	ActionSource[A]
}

// ViewFuncs adapts plain functions to RenderView.
// Nil fields are no-ops.
type ViewFuncs[S, A, E any] struct {
	RenderFunc     func(state S)
	SideEffectFunc func(effect E)
	ActionsFunc    func(ctx context.Context) <-chan A
}

// Render calls RenderFunc.
func (v ViewFuncs[S, A, E]) Render(state S) {
	if v.RenderFunc != nil {
		v.RenderFunc(state)
	}
}

// SideEffect calls SideEffectFunc.
func (v ViewFuncs[S, A, E]) SideEffect(effect E) {
	if v.SideEffectFunc != nil {
		v.SideEffectFunc(effect)
	}
}

// Actions calls ActionsFunc.
func (v ViewFuncs[S, A, E]) Actions(ctx context.Context) <-chan A {
	if v.ActionsFunc == nil {
		return nil
	}
	return v.ActionsFunc(ctx)
}

// Flow binds views to a State stream and a SideEffect stream.
type Flow[S, A, E any] interface {
	// BindView renders the current State on view, then every later State,
	// and dispatches initialActions followed by the view's own Actions.
	// The binding lasts until ctx or the Flow is done.
	BindView(ctx context.Context, view RenderView[S, A, E], initialActions ...A) error

	// BindSideEffects delivers every SideEffect emitted from now on to view,
	// until ctx or the Flow is done.
	BindSideEffects(ctx context.Context, view SideEffectRenderer[E]) error

	// State returns the current State.
	State() S

	// Stats returns a snapshot of the Flow's counters.
	Stats() Stats

	// IsActive returns false once the owning scope has been cancelled.
	IsActive() bool

	// Done is closed when the Flow is torn down.
	Done() <-chan struct{}

	// Wait blocks until the Flow is torn down and every task it started
	// has returned.
	Wait() error
}
