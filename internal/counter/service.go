package counter

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dshills/mviflow/internal/mvi"
)

// ErrSourceUnavailable is returned by a failing Source fetch.
var ErrSourceUnavailable = errors.New("count source unavailable")

// Source provides the authoritative count for Refresh.
type Source interface {
	Fetch(ctx context.Context) (int, error)
}

// SimulatedSource is a Source with fixed latency that fails on every
// FailEvery-th fetch. Each successful fetch returns Base plus the number of
// fetches so far.
type SimulatedSource struct {
	Base      int
	Latency   time.Duration
	FailEvery int

	fetches atomic.Int64
}

// Fetch waits for the configured latency and returns the next count.
func (s *SimulatedSource) Fetch(ctx context.Context) (int, error) {
	n := s.fetches.Add(1)

	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	}

	if s.FailEvery > 0 && n%int64(s.FailEvery) == 0 {
		return 0, fmt.Errorf("fetch %d: %w", n, ErrSourceUnavailable)
	}
	return s.Base + int(n), nil
}

// Service turns counter Actions into Modifications and SideEffects.
type Service struct {
	stepper Stepper
	source  Source
}

// NewService creates a Service. A nil stepper steps by one.
func NewService(stepper Stepper, source Source) *Service {
	if stepper == nil {
		stepper = FixedStep(1)
	}
	return &Service{stepper: stepper, source: source}
}

// Handle is the mvi Handler for the counter screen.
func (s *Service) Handle(ctx context.Context, mods mvi.Emitter[Modification], state State, action Action, effects mvi.Emitter[SideEffect]) error {
	switch action.(type) {
	case Increment:
		return s.step(ctx, mods, state, "increment", 1)
	case Decrement:
		return s.step(ctx, mods, state, "decrement", -1)
	case Reset:
		if err := mods.Emit(SetCount{Value: 0}); err != nil {
			return err
		}
		return effects.Emit(SideEffect{Toast: "Counter reset"})
	case Refresh:
		return s.refresh(ctx, mods, effects)
	}
	return fmt.Errorf("unsupported action %T", action)
}

func (s *Service) step(ctx context.Context, mods mvi.Emitter[Modification], state State, name string, sign int) error {
	n, err := s.stepper.Step(ctx, name, state.Count)
	if err != nil {
		return fmt.Errorf("computing %s step: %w", name, err)
	}
	return mods.Emit(Add{Delta: sign * n})
}

// refresh reports source failures through State and a toast rather than
// through the returned error.
func (s *Service) refresh(ctx context.Context, mods mvi.Emitter[Modification], effects mvi.Emitter[SideEffect]) error {
	if s.source == nil {
		return effects.Emit(SideEffect{Toast: "Nothing to refresh"})
	}

	if err := mods.Emit(SetLoading{Loading: true}); err != nil {
		return err
	}

	count, err := s.source.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		for _, m := range []Modification{SetLoading{Loading: false}, SetMessage{Text: "Refresh failed: " + err.Error()}} {
			if err := mods.Emit(m); err != nil {
				return err
			}
		}
		return effects.Emit(SideEffect{Toast: "Refresh failed"})
	}

	for _, m := range []Modification{SetCount{Value: count}, SetLoading{Loading: false}, SetMessage{Text: ""}, RefreshCompleted{}} {
		if err := mods.Emit(m); err != nil {
			return err
		}
	}
	return effects.Emit(SideEffect{Toast: fmt.Sprintf("Refreshed: %d", count)})
}
