package broadcast

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// CursorState represents the state of a cursor.
type CursorState int32

const (
	// CursorStateActive means the cursor is receiving values.
	CursorStateActive CursorState = iota

	// CursorStateCancelled means the cursor was cancelled by its owner.
	CursorStateCancelled

	// CursorStateClosed means the stream was closed under the cursor.
	CursorStateClosed
)

// String returns a human-readable state name.
func (s CursorState) String() string {
	switch s {
	case CursorStateActive:
		return "active"
	case CursorStateCancelled:
		return "cancelled"
	case CursorStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Cursor is one subscriber's position in a stream.
// Values are queued per cursor and read with Next.
type Cursor[T any] struct {
	id     string
	state  atomic.Int32
	detach func(id string)

	mu     sync.Mutex
	items  []T
	reason error
	notify chan struct{}
}

func newCursor[T any](detach func(id string)) *Cursor[T] {
	c := &Cursor[T]{
		id:     uuid.NewString(),
		detach: detach,
		notify: make(chan struct{}, 1),
	}
	c.state.Store(int32(CursorStateActive))
	return c
}

// ID returns the unique cursor identifier.
func (c *Cursor[T]) ID() string {
	return c.id
}

// State returns the current cursor state.
func (c *Cursor[T]) State() CursorState {
	return CursorState(c.state.Load())
}

// IsActive returns true if the cursor still receives values.
func (c *Cursor[T]) IsActive() bool {
	return c.State() == CursorStateActive
}

// pending returns the number of queued, unread values.
func (c *Cursor[T]) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Next blocks until the next value is available, the cursor is cancelled,
// the stream is closed or ctx is done. Queued values are discarded once the
// cursor stops being active.
func (c *Cursor[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		c.mu.Lock()
		if c.reason != nil {
			err := c.reason
			c.mu.Unlock()
			return zero, err
		}
		if len(c.items) > 0 {
			v := c.items[0]
			c.items[0] = zero
			c.items = c.items[1:]
			c.mu.Unlock()
			return v, nil
		}
		c.mu.Unlock()

		select {
		case <-c.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Cancel detaches the cursor from its stream.
// It is safe to call more than once.
func (c *Cursor[T]) Cancel() {
	if !c.stop(CursorStateCancelled, ErrCursorCancelled) {
		return
	}
	if c.detach != nil {
		c.detach(c.id)
	}
}

// push queues v. It returns false if the cursor no longer accepts values.
func (c *Cursor[T]) push(v T) bool {
	c.mu.Lock()
	if c.reason != nil {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items, v)
	c.mu.Unlock()

	c.wake()
	return true
}

// stop moves the cursor out of the active state.
// Only the first transition wins.
func (c *Cursor[T]) stop(state CursorState, reason error) bool {
	if !c.state.CompareAndSwap(int32(CursorStateActive), int32(state)) {
		return false
	}

	c.mu.Lock()
	c.reason = reason
	c.items = nil
	c.mu.Unlock()

	c.wake()
	return true
}

func (c *Cursor[T]) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
