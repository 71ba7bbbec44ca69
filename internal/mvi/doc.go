// Package mvi implements the reactive state binder used by the UI layer.
//
// A Flow connects a view's Actions to a Handler, folds the Modifications the
// Handler emits into a single State with a pure Reducer, and publishes every
// new State to the bound views. SideEffects emitted by the Handler are
// delivered once to each side-effect subscriber that is bound at emission
// time.
//
//	view.Actions() ──▶ Handler(mods, state, action, effects)
//	                     │                    │
//	                     ▼                    ▼
//	           Reducer(state, mod)      SideEffect stream ──▶ view.SideEffect
//	                     │
//	                     ▼
//	               State stream ──▶ view.Render
//
// # Ordering
//
// Modifications are applied one at a time under a lock owned by the Flow.
// Within one Handler invocation they are applied in emission order; across
// concurrently running invocations they interleave arbitrarily. Every view
// observes the same sequence of States, starting with the State current at
// bind time.
//
// # Lifetime
//
// The context passed to New is the Flow's owning scope. Cancelling it tears
// the Flow down: every bound view is detached, in-flight Handler contexts are
// cancelled and no Modification is applied afterwards. Each BindView and
// BindSideEffects call takes its own context as well; cancelling it detaches
// only that binding.
//
// # Handler failures
//
// The Flow does not retry or recover on a Handler's behalf. An error returned
// by a Handler, or a panic inside one, is logged, counted in Stats and passed
// to the optional error handler; processing of other Actions continues.
// Handlers that want user-visible failure reporting emit a SideEffect or a
// Modification describing the failure. A panic raised by the Reducer is a
// programming defect and is not recovered.
//
// # Basic Usage
//
//	flow := mvi.New(ctx, 0,
//	    func(s, m int) int { return s + m },
//	    func(ctx context.Context, mods mvi.Emitter[int], s int, a string, fx mvi.Emitter[string]) error {
//	        if a == "inc" {
//	            return mods.Emit(1)
//	        }
//	        return fx.Emit("unknown action " + a)
//	    },
//	)
//
//	flow.BindView(viewCtx, view, "inc", "inc")
//	flow.BindSideEffects(viewCtx, view)
package mvi
