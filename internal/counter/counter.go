// Package counter is a small screen model bound through the mvi binder: a
// count that can be stepped, reset and refreshed from a slow source.
package counter

import (
	"context"

	"github.com/dshills/mviflow/internal/mvi"
)

// State is the rendered screen model.
type State struct {
	Count     int
	Loading   bool
	Message   string
	Refreshes int
}

// Action is a user intent.
type Action interface {
	isAction()
}

// Increment adds one step to the count.
type Increment struct{}

// Decrement removes one step from the count.
type Decrement struct{}

// Reset sets the count to zero.
type Reset struct{}

// Refresh reloads the count from the Source.
type Refresh struct{}

func (Increment) isAction() {}
func (Decrement) isAction() {}
func (Reset) isAction()     {}
func (Refresh) isAction()   {}

// Modification is a State change produced by the Handler.
type Modification interface {
	isModification()
}

// Add changes the count by Delta.
type Add struct{ Delta int }

// SetCount replaces the count.
type SetCount struct{ Value int }

// SetLoading toggles the loading indicator.
type SetLoading struct{ Loading bool }

// SetMessage replaces the status message.
type SetMessage struct{ Text string }

// RefreshCompleted records a finished refresh.
type RefreshCompleted struct{}

func (Add) isModification()              {}
func (SetCount) isModification()         {}
func (SetLoading) isModification()       {}
func (SetMessage) isModification()       {}
func (RefreshCompleted) isModification() {}

// SideEffect is a one-shot notification for the view.
type SideEffect struct {
	Toast string
}

// Flow is the binder type for the counter screen.
type Flow = mvi.Flow[State, Action, SideEffect]

// Reduce folds a Modification into the State.
func Reduce(state State, mod Modification) State {
	switch m := mod.(type) {
	case Add:
		state.Count += m.Delta
	case SetCount:
		state.Count = m.Value
	case SetLoading:
		state.Loading = m.Loading
	case SetMessage:
		state.Message = m.Text
	case RefreshCompleted:
		state.Refreshes++
	default:
		mvi.RejectModification(mod, "unknown counter modification")
	}
	return state
}

// NewFlow binds svc to a new Flow starting at initial.
func NewFlow(ctx context.Context, initial State, svc *Service, opts ...mvi.Option) Flow {
	return mvi.New(ctx, initial, mvi.Reducer[State, Modification](Reduce), svc.Handle, opts...)
}
