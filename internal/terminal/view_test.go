package terminal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/mviflow/internal/counter"
	"github.com/dshills/mviflow/internal/mvi"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	screen.SetSize(60, 12)
	t.Cleanup(screen.Fini)
	return screen
}

func rowText(screen tcell.Screen, y int) string {
	width, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
		if r == 0 {
			r = ' '
		}
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func waitForRow(t *testing.T, screen tcell.Screen, y int, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(rowText(screen, y), want) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("row %d never contained %q, last: %q", y, want, rowText(screen, y))
}

func TestCounterView_Render(t *testing.T) {
	screen := newScreen(t)
	view := NewCounterView(screen)

	view.Render(counter.State{Count: 7, Refreshes: 2, Loading: true, Message: "Refresh failed"})
	view.SideEffect(counter.SideEffect{Toast: "hello"})

	tests := []struct {
		row  int
		want string
	}{
		{0, "mviflow counter"},
		{2, "Count: 7"},
		{3, "Refreshes: 2"},
		{4, "Refreshing..."},
		{5, "Refresh failed"},
		{10, "hello"},
		{11, helpLine},
	}
	for _, tt := range tests {
		if got := rowText(screen, tt.row); got != tt.want {
			t.Errorf("row %d = %q, expected %q", tt.row, got, tt.want)
		}
	}
}

func TestKeyAction(t *testing.T) {
	tests := []struct {
		name   string
		key    tcell.Key
		r      rune
		action counter.Action
		quit   bool
	}{
		{"plus", tcell.KeyRune, '+', counter.Increment{}, false},
		{"up", tcell.KeyUp, 0, counter.Increment{}, false},
		{"minus", tcell.KeyRune, '-', counter.Decrement{}, false},
		{"down", tcell.KeyDown, 0, counter.Decrement{}, false},
		{"refresh", tcell.KeyRune, 'r', counter.Refresh{}, false},
		{"reset", tcell.KeyRune, '0', counter.Reset{}, false},
		{"q", tcell.KeyRune, 'q', nil, true},
		{"escape", tcell.KeyEscape, 0, nil, true},
		{"ctrl-c", tcell.KeyCtrlC, 0, nil, true},
		{"other", tcell.KeyRune, 'x', nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, quit := KeyAction(tcell.NewEventKey(tt.key, tt.r, tcell.ModNone))
			if action != tt.action || quit != tt.quit {
				t.Errorf("KeyAction = (%v, %v), expected (%v, %v)", action, quit, tt.action, tt.quit)
			}
		})
	}
}

func TestCounterView_RunProducesActions(t *testing.T) {
	screen := newScreen(t)
	view := NewCounterView(screen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- view.Run(ctx) }()

	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))

	select {
	case action := <-view.Actions(ctx):
		if action != (counter.Refresh{}) {
			t.Errorf("expected Refresh, got %#v", action)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no action produced")
	}

	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return on quit")
	}

	if _, ok := <-view.Actions(ctx); ok {
		t.Error("expected actions channel to be closed after Run")
	}
}

func TestCounterView_RunStopsOnCancel(t *testing.T) {
	screen := newScreen(t)
	view := NewCounterView(screen)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- view.Run(ctx) }()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return on cancel")
	}
}

func TestCounterView_BoundToFlow(t *testing.T) {
	screen := newScreen(t)
	view := NewCounterView(screen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := counter.NewService(counter.FixedStep(2), &counter.SimulatedSource{Base: 40})
	flow := counter.NewFlow(ctx, counter.State{}, svc, mvi.WithSequentialActions())
	if err := flow.BindSideEffects(ctx, view); err != nil {
		t.Fatalf("BindSideEffects() failed: %v", err)
	}
	if err := flow.BindView(ctx, view); err != nil {
		t.Fatalf("BindView() failed: %v", err)
	}
	go view.Run(ctx)

	waitForRow(t, screen, 2, "Count: 0")

	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone))
	waitForRow(t, screen, 2, "Count: 2")

	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	waitForRow(t, screen, 2, "Count: 41")
	waitForRow(t, screen, 10, "Refreshed: 41")
}
