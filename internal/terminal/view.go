// Package terminal renders the counter screen on a tcell terminal and turns
// key presses into counter Actions.
package terminal

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/mviflow/internal/counter"
)

const helpLine = "+/- step   r refresh   0 reset   q quit"

// CounterView implements mvi.RenderView for the counter screen.
type CounterView struct {
	screen  tcell.Screen
	actions chan counter.Action

	mu    sync.Mutex
	state counter.State
	toast string
}

// NewCounterView creates a view drawing on an initialized screen.
func NewCounterView(screen tcell.Screen) *CounterView {
	return &CounterView{
		screen:  screen,
		actions: make(chan counter.Action, 16),
	}
}

// Render draws state.
func (v *CounterView) Render(state counter.State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = state
	v.draw()
}

// SideEffect shows the effect's toast on the status line.
func (v *CounterView) SideEffect(effect counter.SideEffect) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.toast = effect.Toast
	v.draw()
}

// Actions returns the stream of Actions produced by key presses.
// It is closed when Run returns.
func (v *CounterView) Actions(ctx context.Context) <-chan counter.Action {
	return v.actions
}

// Run polls terminal events until the user quits, the screen is finalized
// or ctx is done.
func (v *CounterView) Run(ctx context.Context) error {
	defer close(v.actions)

	stop := context.AfterFunc(ctx, func() {
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil)) // best-effort wake-up
	})
	defer stop()

	for {
		switch ev := v.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			v.screen.Sync()
			v.mu.Lock()
			v.draw()
			v.mu.Unlock()
		case *tcell.EventKey:
			action, quit := KeyAction(ev)
			if quit {
				return nil
			}
			if action == nil {
				continue
			}
			select {
			case v.actions <- action:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// KeyAction maps a key press to a counter Action. quit is true for the
// keys that leave the screen.
func KeyAction(ev *tcell.EventKey) (action counter.Action, quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return nil, true
	case tcell.KeyUp:
		return counter.Increment{}, false
	case tcell.KeyDown:
		return counter.Decrement{}, false
	case tcell.KeyRune:
		switch ev.Rune() {
		case '+', '=', 'k':
			return counter.Increment{}, false
		case '-', 'j':
			return counter.Decrement{}, false
		case 'r':
			return counter.Refresh{}, false
		case '0':
			return counter.Reset{}, false
		case 'q':
			return nil, true
		}
	}
	return nil, false
}

// draw repaints the whole screen. Callers hold v.mu.
func (v *CounterView) draw() {
	v.screen.Clear()
	_, height := v.screen.Size()

	v.drawText(0, 0, "mviflow counter", tcell.StyleDefault.Bold(true))
	v.drawText(0, 2, fmt.Sprintf("Count: %d", v.state.Count), tcell.StyleDefault)
	v.drawText(0, 3, fmt.Sprintf("Refreshes: %d", v.state.Refreshes), tcell.StyleDefault.Dim(true))
	if v.state.Loading {
		v.drawText(0, 4, "Refreshing...", tcell.StyleDefault.Foreground(tcell.ColorYellow))
	}
	if v.state.Message != "" {
		v.drawText(0, 5, v.state.Message, tcell.StyleDefault.Foreground(tcell.ColorRed))
	}

	if height > 7 {
		if v.toast != "" {
			v.drawText(0, height-2, v.toast, tcell.StyleDefault.Reverse(true))
		}
		v.drawText(0, height-1, helpLine, tcell.StyleDefault.Dim(true))
	}

	v.screen.Show()
}

func (v *CounterView) drawText(x, y int, text string, style tcell.Style) {
	width, _ := v.screen.Size()
	for _, r := range text {
		if x >= width {
			return
		}
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
