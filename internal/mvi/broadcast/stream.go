package broadcast

import "sync"

// Stream carries one-shot values without replay.
type Stream[T any] struct {
	mu     sync.Mutex
	subs   registry[T]
	closed bool
}

// NewStream creates an empty Stream.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: newRegistry[T]()}
}

// Subscribe attaches a cursor that receives values published from now on.
func (s *Stream[T]) Subscribe() (*Cursor[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	c := newCursor[T](s.detach)
	s.subs.add(c)
	return c, nil
}

// Publish delivers v to every current subscriber and returns how many
// received it. With no subscribers the value is dropped.
func (s *Stream[T]) Publish(v T) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	return s.subs.fanout(v), nil
}

// Subscribers returns the number of attached cursors.
func (s *Stream[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs.count()
}

// Close detaches every cursor and rejects further publishes.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.subs.closeAll()
}

func (s *Stream[T]) detach(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs.remove(id)
}
