package mvi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/mviflow/internal/logging"
	"github.com/dshills/mviflow/internal/mvi/broadcast"
	"github.com/dshills/mviflow/internal/mvi/dispatch"
)

// flow is the default Flow implementation.
type flow[S, A, M, E any] struct {
	ctx     context.Context
	reducer Reducer[S, M]
	handler Handler[S, A, M, E]

	state   *broadcast.Value[S]
	effects *broadcast.Stream[E]

	executor *dispatch.Executor
	config   flowConfig
	logger   *logging.Logger

	// bindMu orders bindings against teardown so no task is started
	// after Wait may have begun.
	bindMu   sync.Mutex
	tornDown atomic.Bool
	done     chan struct{}
	group    errgroup.Group

	stats flowStats
}

// New creates a Flow holding initial and starts it.
//
// ctx is the Flow's owning scope: cancelling it tears the Flow down. New
// panics if reducer or handler is nil.
func New[S, A, M, E any](ctx context.Context, initial S, reducer Reducer[S, M], handler Handler[S, A, M, E], opts ...Option) Flow[S, A, E] {
	if reducer == nil {
		panic("mvi: nil reducer")
	}
	if handler == nil {
		panic("mvi: nil handler")
	}

	config := defaultFlowConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var valueOpts []broadcast.ValueOption[S]
	if config.stateEqual != nil {
		eq, ok := config.stateEqual.(func(a, b S) bool)
		if !ok {
			panic(fmt.Sprintf("mvi: state equality %T does not match state type %T", config.stateEqual, initial))
		}
		valueOpts = append(valueOpts, broadcast.WithEqual(eq))
	}

	f := &flow[S, A, M, E]{
		ctx:     ctx,
		reducer: reducer,
		handler: handler,
		state:   broadcast.NewValue(initial, valueOpts...),
		effects: broadcast.NewStream[E](),
		config:  config,
		logger:  config.logger.WithComponent("mvi"),
		done:    make(chan struct{}),
	}
	f.executor = dispatch.NewExecutor(
		dispatch.WithFatal(isReducerDomainError),
		dispatch.WithPanicHandler(func(v any, stack []byte) {
			f.logger.Error("handler panic: %v\n%s", v, stack)
		}),
	)

	context.AfterFunc(ctx, f.teardown)
	return f
}

// BindView subscribes view to the State stream and starts consuming its
// Actions.
func (f *flow[S, A, M, E]) BindView(ctx context.Context, view RenderView[S, A, E], initialActions ...A) error {
	if view == nil {
		return ErrNilView
	}

	f.bindMu.Lock()
	defer f.bindMu.Unlock()

	if f.tornDown.Load() {
		return ErrFlowTornDown
	}

	cursor, err := f.state.Subscribe()
	if err != nil {
		return ErrFlowTornDown
	}

	scope, release := f.bindScope(ctx)
	log := f.logger.WithField("binding", cursor.ID())
	log.Debug("view bound with %d initial actions", len(initialActions))

	f.group.Go(func() error {
		defer release()
		f.renderLoop(scope, cursor, view)
		log.Debug("view unbound")
		return nil
	})
	f.group.Go(func() error {
		f.actionLoop(scope, view, initialActions)
		return nil
	})

	return nil
}

// BindSideEffects subscribes view to the SideEffect stream.
func (f *flow[S, A, M, E]) BindSideEffects(ctx context.Context, view SideEffectRenderer[E]) error {
	if view == nil {
		return ErrNilView
	}

	f.bindMu.Lock()
	defer f.bindMu.Unlock()

	if f.tornDown.Load() {
		return ErrFlowTornDown
	}

	cursor, err := f.effects.Subscribe()
	if err != nil {
		return ErrFlowTornDown
	}

	scope, release := f.bindScope(ctx)
	log := f.logger.WithField("binding", cursor.ID())
	log.Debug("side effects bound")

	f.group.Go(func() error {
		defer release()
		defer cursor.Cancel()
		for {
			effect, err := cursor.Next(scope)
			if err != nil || scope.Err() != nil {
				log.Debug("side effects unbound")
				return nil
			}
			f.stats.sideEffectsDelivered.Add(1)
			view.SideEffect(effect)
		}
	})

	return nil
}

// State returns the current State.
func (f *flow[S, A, M, E]) State() S {
	return f.state.Load()
}

// Stats returns a snapshot of the Flow's counters.
func (f *flow[S, A, M, E]) Stats() Stats {
	return Stats{
		ActionsReceived:       f.stats.actionsReceived.Load(),
		HandlerInvocations:    f.stats.handlerInvocations.Load(),
		HandlerErrors:         f.stats.handlerErrors.Load(),
		HandlerPanics:         f.stats.handlerPanics.Load(),
		ModificationsApplied:  f.stats.modificationsApplied.Load(),
		ModificationsDropped:  f.stats.modificationsDropped.Load(),
		SideEffectsEmitted:    f.stats.sideEffectsEmitted.Load(),
		SideEffectsDelivered:  f.stats.sideEffectsDelivered.Load(),
		StateSubscribers:      f.state.Subscribers(),
		SideEffectSubscribers: f.effects.Subscribers(),
	}
}

// IsActive returns false once the Flow has been torn down.
func (f *flow[S, A, M, E]) IsActive() bool {
	return !f.tornDown.Load()
}

// Done is closed when the Flow is torn down.
func (f *flow[S, A, M, E]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until teardown and until every binding and in-flight
// invocation has returned.
func (f *flow[S, A, M, E]) Wait() error {
	<-f.done
	return f.group.Wait()
}

// bindScope derives a binding context that ends with ctx or with the Flow.
func (f *flow[S, A, M, E]) bindScope(ctx context.Context) (context.Context, context.CancelFunc) {
	scope, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(f.ctx, cancel)
	return scope, func() {
		stop()
		cancel()
	}
}

func (f *flow[S, A, M, E]) teardown() {
	f.bindMu.Lock()
	if f.tornDown.Load() {
		f.bindMu.Unlock()
		return
	}
	f.tornDown.Store(true)
	f.bindMu.Unlock()

	f.state.Close()
	f.effects.Close()
	f.logger.Debug("flow torn down")
	close(f.done)
}

func (f *flow[S, A, M, E]) renderLoop(ctx context.Context, cursor *broadcast.Cursor[S], view StateRenderer[S]) {
	defer cursor.Cancel()
	for {
		state, err := cursor.Next(ctx)
		if err != nil || ctx.Err() != nil {
			return
		}
		view.Render(state)
	}
}

func (f *flow[S, A, M, E]) actionLoop(ctx context.Context, view ActionSource[A], initial []A) {
	for _, action := range initial {
		if ctx.Err() != nil {
			return
		}
		f.dispatch(ctx, action)
	}

	actions := view.Actions(ctx)
	if actions == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case action, ok := <-actions:
			if !ok {
				return
			}
			f.dispatch(ctx, action)
		}
	}
}

func (f *flow[S, A, M, E]) dispatch(ctx context.Context, action A) {
	f.stats.actionsReceived.Add(1)

	if f.config.sequential {
		f.handle(ctx, action)
		return
	}

	// The calling action loop is itself a group task, so the group
	// counter is positive here.
	f.group.Go(func() error {
		f.handle(ctx, action)
		return nil
	})
}

// handle runs one Handler invocation against the State current now.
func (f *flow[S, A, M, E]) handle(ctx context.Context, action A) {
	state := f.state.Load()
	mods := EmitterFunc[M](func(mod M) error {
		return f.applyModification(ctx, mod)
	})
	effects := EmitterFunc[E](func(effect E) error {
		return f.emitSideEffect(ctx, effect)
	})

	result := f.executor.Execute(ctx, func(ctx context.Context) error {
		return f.handler(ctx, mods, state, action, effects)
	})
	f.report(ctx, action, result)
}

func (f *flow[S, A, M, E]) report(ctx context.Context, action A, result dispatch.Result) {
	if result.Skipped {
		return
	}
	f.stats.handlerInvocations.Add(1)

	var err error
	switch {
	case result.IsSuccess():
		f.logger.Debug("handled action %v in %s", action, result.Duration)
		return
	case result.IsPanic():
		// The stack was logged by the executor's panic handler.
		f.stats.handlerPanics.Add(1)
		err = &PanicError{Action: action, Value: result.PanicValue, Stack: string(result.PanicStack)}
	case result.IsError():
		if f.isCancellation(ctx, result.Error) {
			f.logger.Debug("handler for action %v stopped after %s: %v", action, result.Duration, result.Error)
			return
		}
		f.stats.handlerErrors.Add(1)
		err = &HandlerError{Action: action, Err: result.Error}
		f.logger.Error("%v (after %s)", err, result.Duration)
	default:
		return
	}

	if f.config.errorHandler != nil {
		f.config.errorHandler(err)
	}
}

func (f *flow[S, A, M, E]) isCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, ErrFlowTornDown) {
		return true
	}
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// applyModification folds mod into the State unless the invocation or the
// Flow has been cancelled. The check and the fold happen under the State
// lock.
func (f *flow[S, A, M, E]) applyModification(ctx context.Context, mod M) error {
	_, err := f.state.Update(func(current S) (S, error) {
		if f.ctx.Err() != nil {
			return current, ErrFlowTornDown
		}
		if err := ctx.Err(); err != nil {
			return current, err
		}
		return f.reduce(current, mod), nil
	})
	if err != nil {
		f.stats.modificationsDropped.Add(1)
		if errors.Is(err, broadcast.ErrClosed) {
			return ErrFlowTornDown
		}
		return err
	}

	f.stats.modificationsApplied.Add(1)
	return nil
}

func (f *flow[S, A, M, E]) emitSideEffect(ctx context.Context, effect E) error {
	if f.ctx.Err() != nil {
		return ErrFlowTornDown
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := f.effects.Publish(effect); err != nil {
		return ErrFlowTornDown
	}
	f.stats.sideEffectsEmitted.Add(1)
	return nil
}

// reduce applies the Reducer. Any panic it raises becomes a
// ReducerDomainError and keeps propagating.
func (f *flow[S, A, M, E]) reduce(state S, mod M) S {
	defer func() {
		if r := recover(); r != nil {
			if isReducerDomainError(r) {
				panic(r)
			}
			panic(&ReducerDomainError{Modification: mod, Reason: r})
		}
	}()
	return f.reducer(state, mod)
}
