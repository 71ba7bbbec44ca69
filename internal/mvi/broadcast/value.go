package broadcast

import "sync"

// Value is a stream with a current value.
// All reads and updates of the value go through its lock, so updates are
// serialized and every subscriber observes them in the same order.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    registry[T]
	closed  bool
	equal   func(a, b T) bool
}

// ValueOption configures a Value.
type ValueOption[T any] func(*Value[T])

// WithEqual makes Update skip the fan-out when the new value equals the
// current one.
func WithEqual[T any](eq func(a, b T) bool) ValueOption[T] {
	return func(v *Value[T]) {
		v.equal = eq
	}
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T, opts ...ValueOption[T]) *Value[T] {
	v := &Value[T]{
		current: initial,
		subs:    newRegistry[T](),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load returns the current value.
func (v *Value[T]) Load() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Subscribe attaches a cursor whose first item is the current value.
func (v *Value[T]) Subscribe() (*Cursor[T], error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, ErrClosed
	}

	c := newCursor[T](v.detach)
	c.push(v.current)
	v.subs.add(c)
	return c, nil
}

// Update replaces the current value with fn(current) and fans the result
// out to all subscribers. fn runs under the value's lock; if it returns an
// error the value is left unchanged and the error is returned.
func (v *Value[T]) Update(fn func(current T) (T, error)) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return v.current, ErrClosed
	}

	next, err := fn(v.current)
	if err != nil {
		return v.current, err
	}

	unchanged := v.equal != nil && v.equal(v.current, next)
	v.current = next
	if !unchanged {
		v.subs.fanout(next)
	}
	return next, nil
}

// Subscribers returns the number of attached cursors.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.subs.count()
}

// Close detaches every cursor and rejects further updates.
// The last value stays readable through Load.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	v.subs.closeAll()
}

func (v *Value[T]) detach(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subs.remove(id)
}
