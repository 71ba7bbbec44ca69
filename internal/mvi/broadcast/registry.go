package broadcast

// registry tracks the cursors attached to one stream in subscription order.
// It is not safe for concurrent use; the owning stream's lock guards it.
type registry[T any] struct {
	cursors []*Cursor[T]
	byID    map[string]*Cursor[T]
}

func newRegistry[T any]() registry[T] {
	return registry[T]{byID: make(map[string]*Cursor[T])}
}

func (r *registry[T]) add(c *Cursor[T]) {
	r.cursors = append(r.cursors, c)
	r.byID[c.ID()] = c
}

func (r *registry[T]) remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, c := range r.cursors {
		if c.ID() == id {
			r.cursors = append(r.cursors[:i], r.cursors[i+1:]...)
			break
		}
	}
	return true
}

// fanout pushes v to every cursor and returns the number that accepted it.
func (r *registry[T]) fanout(v T) int {
	delivered := 0
	for _, c := range r.cursors {
		if c.push(v) {
			delivered++
		}
	}
	return delivered
}

// closeAll stops every cursor with ErrClosed and empties the registry.
func (r *registry[T]) closeAll() {
	for _, c := range r.cursors {
		c.stop(CursorStateClosed, ErrClosed)
	}
	r.cursors = nil
	r.byID = make(map[string]*Cursor[T])
}

func (r *registry[T]) count() int {
	return len(r.cursors)
}
