package counter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/mviflow/internal/mvi"
)

type bogus struct{}

func (bogus) isModification() {}

func TestReduce(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		mod      Modification
		expected State
	}{
		{"add", State{Count: 2}, Add{Delta: 3}, State{Count: 5}},
		{"subtract", State{Count: 2}, Add{Delta: -5}, State{Count: -3}},
		{"set count", State{Count: 9}, SetCount{Value: 1}, State{Count: 1}},
		{"loading", State{}, SetLoading{Loading: true}, State{Loading: true}},
		{"message", State{Message: "old"}, SetMessage{Text: "new"}, State{Message: "new"}},
		{"refresh completed", State{Refreshes: 1}, RefreshCompleted{}, State{Refreshes: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.state, tt.mod)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Reduce mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduce_UnknownModification(t *testing.T) {
	defer func() {
		if _, ok := recover().(*mvi.ReducerDomainError); !ok {
			t.Error("expected *mvi.ReducerDomainError panic")
		}
	}()
	Reduce(State{}, bogus{})
}

// screen collects renders and toasts from a bound counter flow.
type screen struct {
	mu     sync.Mutex
	states []State
	toasts []string
}

func (s *screen) view() mvi.ViewFuncs[State, Action, SideEffect] {
	return mvi.ViewFuncs[State, Action, SideEffect]{
		RenderFunc: func(st State) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.states = append(s.states, st)
		},
		SideEffectFunc: func(e SideEffect) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.toasts = append(s.toasts, e.Toast)
		},
	}
}

func (s *screen) Toasts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.toasts...)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func bind(t *testing.T, svc *Service, initial State, actions ...Action) (Flow, *screen, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	flow := NewFlow(ctx, initial, svc, mvi.WithSequentialActions())
	scr := &screen{}
	if err := flow.BindSideEffects(ctx, scr.view()); err != nil {
		t.Fatalf("BindSideEffects() failed: %v", err)
	}
	if err := flow.BindView(ctx, scr.view(), actions...); err != nil {
		t.Fatalf("BindView() failed: %v", err)
	}
	return flow, scr, cancel
}

func TestService_Steps(t *testing.T) {
	svc := NewService(FixedStep(5), nil)
	flow, _, _ := bind(t, svc, State{Count: 1}, Increment{}, Increment{}, Decrement{})

	eventually(t, "three actions handled", func() bool { return flow.Stats().HandlerInvocations == 3 })
	if got := flow.State().Count; got != 6 {
		t.Errorf("expected count 6, got %d", got)
	}
}

func TestService_Reset(t *testing.T) {
	flow, scr, _ := bind(t, NewService(nil, nil), State{Count: 42}, Reset{})

	eventually(t, "reset toast", func() bool { return len(scr.Toasts()) == 1 })
	if flow.State().Count != 0 {
		t.Errorf("expected count 0, got %d", flow.State().Count)
	}
	if scr.Toasts()[0] != "Counter reset" {
		t.Errorf("unexpected toast %q", scr.Toasts()[0])
	}
}

func TestService_RefreshSuccess(t *testing.T) {
	src := &SimulatedSource{Base: 100}
	flow, scr, _ := bind(t, NewService(nil, src), State{Message: "stale"}, Refresh{})

	eventually(t, "refresh toast", func() bool { return len(scr.Toasts()) == 1 })

	want := State{Count: 101, Refreshes: 1}
	if diff := cmp.Diff(want, flow.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if scr.Toasts()[0] != "Refreshed: 101" {
		t.Errorf("unexpected toast %q", scr.Toasts()[0])
	}
}

func TestService_RefreshFailureBecomesState(t *testing.T) {
	src := &SimulatedSource{FailEvery: 1}
	flow, scr, _ := bind(t, NewService(nil, src), State{Count: 3}, Refresh{})

	eventually(t, "failure toast", func() bool { return len(scr.Toasts()) == 1 })

	st := flow.State()
	if st.Loading || st.Count != 3 || st.Refreshes != 0 {
		t.Errorf("unexpected state after failure: %+v", st)
	}
	if !strings.Contains(st.Message, ErrSourceUnavailable.Error()) {
		t.Errorf("expected failure message, got %q", st.Message)
	}
	if flow.Stats().HandlerErrors != 0 {
		t.Error("a handled refresh failure must not count as a handler error")
	}
}

func TestService_RefreshCancelled(t *testing.T) {
	src := &SimulatedSource{Latency: time.Hour}
	flow, _, cancel := bind(t, NewService(nil, src), State{}, Refresh{})

	eventually(t, "loading", func() bool { return flow.State().Loading })
	cancel()

	done := make(chan struct{})
	go func() {
		flow.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not stop on teardown")
	}

	if !flow.State().Loading || flow.State().Refreshes != 0 {
		t.Errorf("expected state frozen mid-refresh, got %+v", flow.State())
	}
}

func TestSimulatedSource(t *testing.T) {
	src := &SimulatedSource{Base: 10, FailEvery: 3}
	ctx := context.Background()

	for i, want := range []int{11, 12} {
		got, err := src.Fetch(ctx)
		if err != nil || got != want {
			t.Errorf("fetch %d: got %d, %v; expected %d", i+1, got, err, want)
		}
	}
	if _, err := src.Fetch(ctx); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable on third fetch, got %v", err)
	}
}

func TestService_UnsupportedAction(t *testing.T) {
	svc := NewService(nil, nil)
	err := svc.Handle(context.Background(),
		mvi.EmitterFunc[Modification](func(Modification) error { return nil }),
		State{}, nil,
		mvi.EmitterFunc[SideEffect](func(SideEffect) error { return nil }))
	if err == nil {
		t.Error("expected error for nil action")
	}
}
