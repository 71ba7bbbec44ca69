package counter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Sentinel errors for step scripts.
var (
	// ErrNoStepFunction is returned when a script defines no step function.
	ErrNoStepFunction = errors.New("script does not define step(action, count)")

	// ErrStepperClosed is returned after Close.
	ErrStepperClosed = errors.New("stepper is closed")
)

// Stepper decides how far an increment or decrement moves the count.
type Stepper interface {
	Step(ctx context.Context, action string, count int) (int, error)
}

// FixedStep always steps by the same amount.
type FixedStep int

// Step returns the fixed amount.
func (f FixedStep) Step(context.Context, string, int) (int, error) {
	return int(f), nil
}

// LuaStepper calls a Lua function step(action, count) to get the step.
//
// gopher-lua states are not goroutine-safe, so calls are serialized.
type LuaStepper struct {
	mu     sync.Mutex
	state  *lua.LState
	fn     lua.LValue
	closed bool
}

// Globals removed from the base library so scripts cannot reach the
// filesystem or compile new code.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring"}

// LoadLuaStepper compiles the script at path.
func LoadLuaStepper(path string) (*LuaStepper, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading step script %s: %w", path, err)
	}
	return NewLuaStepper(string(src))
}

// NewLuaStepper compiles source, which must define step(action, count).
func NewLuaStepper(source string) (*LuaStepper, error) {
	state, fn, err := compileStep(source)
	if err != nil {
		return nil, err
	}
	return &LuaStepper{state: state, fn: fn}, nil
}

func compileStep(source string) (*lua.LState, lua.LValue, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Only side-effect-free libraries; no io, os or package.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, nil, fmt.Errorf("loading step script: %w", err)
	}

	fn := L.GetGlobal("step")
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, nil, ErrNoStepFunction
	}
	return L, fn, nil
}

// Reload compiles source and swaps it in. On error the current script
// stays active.
func (s *LuaStepper) Reload(source string) error {
	state, fn, err := compileStep(source)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		state.Close()
		return ErrStepperClosed
	}
	old := s.state
	s.state, s.fn = state, fn
	old.Close()
	return nil
}

// Step calls the script. The call is abandoned when ctx is done.
func (s *LuaStepper) Step(ctx context.Context, action string, count int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStepperClosed
	}

	s.state.SetContext(ctx)
	defer s.state.RemoveContext()

	err := s.state.CallByParam(lua.P{
		Fn:      s.fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(action), lua.LNumber(count))
	if err != nil {
		return 0, fmt.Errorf("calling step: %w", err)
	}

	ret := s.state.Get(-1)
	s.state.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("step returned %s, expected number", ret.Type())
	}
	return int(n), nil
}

// Close releases the Lua state.
func (s *LuaStepper) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.state.Close()
}
