package ws

import "sync"

// RingBuffer is a fixed-size circular buffer holding the most recent items.
// Push is O(1); the oldest item is overwritten once the buffer is full.
type RingBuffer[T any] struct {
	mu   sync.Mutex
	data []T
	head int // next write position
	size int // current number of elements
	cap  int // maximum capacity
}

// NewRingBuffer creates a new ring buffer with the given capacity (minimum 1)
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{
		data: make([]T, capacity),
		cap:  capacity,
	}
}

// Push appends an item, evicting the oldest if full
func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.head] = item
	rb.head = (rb.head + 1) % rb.cap

	if rb.size < rb.cap {
		rb.size++
	}
}

// Snapshot returns a copy of all items in insertion order (oldest first)
func (rb *RingBuffer[T]) Snapshot() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	result := make([]T, rb.size)
	if rb.size == 0 {
		return result
	}

	if rb.size < rb.cap {
		// Buffer not full yet, elements are at indices 0..size-1
		copy(result, rb.data[:rb.size])
	} else {
		// Buffer is full, head points to oldest element
		copy(result, rb.data[rb.head:])
		copy(result[rb.cap-rb.head:], rb.data[:rb.head])
	}

	return result
}

// Len returns the current number of elements
func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Cap returns the fixed capacity
func (rb *RingBuffer[T]) Cap() int {
	return rb.cap
}
