package calibration

// ring is a fixed-capacity FIFO. Pushing into a full ring overwrites the
// oldest element.
type ring[T any] struct {
	data []T
	pos  int
	full bool
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{data: make([]T, capacity)}
}

func (r *ring[T]) Push(v T) {
	r.data[r.pos] = v
	r.pos++
	if r.pos >= len(r.data) {
		r.pos = 0
		r.full = true
	}
}

func (r *ring[T]) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.pos
}

func (r *ring[T]) Cap() int {
	return len(r.data)
}

// Slice returns the contents oldest first.
func (r *ring[T]) Slice() []T {
	out := make([]T, r.Len())
	if r.full {
		copy(out, r.data[r.pos:])
		copy(out[len(r.data)-r.pos:], r.data[:r.pos])
	} else {
		copy(out, r.data[:r.pos])
	}
	return out
}
