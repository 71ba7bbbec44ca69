package mvi

import "sync/atomic"

// Stats contains Flow counters.
type Stats struct {
	ActionsReceived       uint64
	HandlerInvocations    uint64
	HandlerErrors         uint64
	HandlerPanics         uint64
	ModificationsApplied  uint64
	ModificationsDropped  uint64
	SideEffectsEmitted    uint64
	SideEffectsDelivered  uint64
	StateSubscribers      int
	SideEffectSubscribers int
}

type flowStats struct {
	actionsReceived      atomic.Uint64
	handlerInvocations   atomic.Uint64
	handlerErrors        atomic.Uint64
	handlerPanics        atomic.Uint64
	modificationsApplied atomic.Uint64
	modificationsDropped atomic.Uint64
	sideEffectsEmitted   atomic.Uint64
	sideEffectsDelivered atomic.Uint64
}
