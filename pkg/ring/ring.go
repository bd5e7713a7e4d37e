package ring

import "fmt"

// Ring is a capacity-bounded FIFO. Push evicts the oldest entry once
// the ring is full. The zero value is not usable; construct with New.
type Ring[T any] struct {
	items    []T
	capacity int
	head     int // next write position
	size     int
}

// New creates a ring with the given capacity.
// Returns an error if capacity is not positive.
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring: capacity must be positive, got %d", capacity)
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}, nil
}

// MustNew is New that panics on invalid capacity. Intended for
// call sites with compile-time constant capacities.
func MustNew[T any](capacity int) *Ring[T] {
	r, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return r
}

// Push appends item, evicting the oldest entry if the ring is full.
// Returns true if an entry was evicted.
func (r *Ring[T]) Push(item T) bool {
	evicted := r.size == r.capacity
	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity
	if !evicted {
		r.size++
	}
	return evicted
}

// Len returns the number of stored entries.
func (r *Ring[T]) Len() int {
	return r.size
}

// Capacity returns the maximum number of entries.
func (r *Ring[T]) Capacity() int {
	return r.capacity
}

// At returns the i-th entry in insertion order (0 = oldest).
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.size {
		panic(fmt.Sprintf("ring: index %d out of range [0,%d)", i, r.size))
	}
	start := (r.head - r.size + r.capacity) % r.capacity
	return r.items[(start+i)%r.capacity]
}

// Items returns the entries oldest-first as a fresh slice.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.size)
	start := (r.head - r.size + r.capacity) % r.capacity
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(start+i)%r.capacity]
	}
	return out
}

// Newest returns the most recently pushed entry.
func (r *Ring[T]) Newest() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	idx := (r.head - 1 + r.capacity) % r.capacity
	return r.items[idx], true
}

// Oldest returns the least recently pushed entry.
func (r *Ring[T]) Oldest() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.At(0), true
}

// Clear removes all entries. Capacity is unchanged.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.items {
		r.items[i] = zero
	}
	r.head = 0
	r.size = 0
}
