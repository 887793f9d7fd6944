// Package ring provides the fixed-capacity circular buffer that holds the
// live window of a stroke pipeline.
package ring

import "fmt"

// Buffer is a fixed-capacity ring of T values addressable from either end.
// Once full, Add overwrites the oldest element. The zero value is not
// usable; construct with New.
type Buffer[T any] struct {
	data  []T
	start int // index of the oldest element in data
	size  int
}

// New returns an empty Buffer with the given capacity. It panics if
// capacity is not positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("ring: capacity must be positive, got %d", capacity))
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Len returns the number of retained elements.
func (b *Buffer[T]) Len() int { return b.size }

// Full reports whether the next Add will evict.
func (b *Buffer[T]) Full() bool { return b.size == len(b.data) }

// Add appends v as the newest element. When the buffer is already full the
// oldest element is overwritten and returned with evicted set to true.
func (b *Buffer[T]) Add(v T) (old T, evicted bool) {
	if b.size < len(b.data) {
		b.data[b.physical(b.size)] = v
		b.size++
		return old, false
	}
	old = b.data[b.start]
	b.data[b.start] = v
	b.start++
	if b.start == len(b.data) {
		b.start = 0
	}
	return old, true
}

// Get returns the i-th oldest element (0 = oldest).
func (b *Buffer[T]) Get(i int) T {
	b.check(i)
	return b.data[b.physical(i)]
}

// GetFromEnd returns the k-th newest element (0 = newest).
func (b *Buffer[T]) GetFromEnd(k int) T {
	b.check(k)
	return b.data[b.physical(b.size-1-k)]
}

// Set replaces the i-th oldest element in place.
func (b *Buffer[T]) Set(i int, v T) {
	b.check(i)
	b.data[b.physical(i)] = v
}

// SetFromEnd replaces the k-th newest element in place.
func (b *Buffer[T]) SetFromEnd(k int, v T) {
	b.check(k)
	b.data[b.physical(b.size-1-k)] = v
}

// At returns a pointer to the i-th oldest element so callers can mutate a
// field without copying the whole value. The pointer is invalidated by the
// next Add or Clear.
func (b *Buffer[T]) At(i int) *T {
	b.check(i)
	return &b.data[b.physical(i)]
}

// AtFromEnd is the newest-relative form of At.
func (b *Buffer[T]) AtFromEnd(k int) *T {
	b.check(k)
	return &b.data[b.physical(b.size-1-k)]
}

// Clear drops every element. Capacity is unchanged.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.start = 0
	b.size = 0
}

// AppendTo appends the retained elements, oldest first, to dst.
func (b *Buffer[T]) AppendTo(dst []T) []T {
	for i := 0; i < b.size; i++ {
		dst = append(dst, b.data[b.physical(i)])
	}
	return dst
}

func (b *Buffer[T]) physical(i int) int {
	p := b.start + i
	if p >= len(b.data) {
		p -= len(b.data)
	}
	return p
}

func (b *Buffer[T]) check(i int) {
	if i < 0 || i >= b.size {
		panic(fmt.Sprintf("ring: index %d out of range [0, %d)", i, b.size))
	}
}
