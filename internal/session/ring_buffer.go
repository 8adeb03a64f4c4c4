package session

import "sync"

// RingBuffer is a fixed-capacity circular buffer of transitions. Once full,
// each write overwrites the oldest entry.
type RingBuffer struct {
	mu       sync.RWMutex
	buf      []Transition
	capacity int
	pos      int // next write position
	full     bool
}

// NewRingBuffer creates a ring buffer with the given capacity. Capacities
// below one are raised to one.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{
		buf:      make([]Transition, capacity),
		capacity: capacity,
	}
}

func (rb *RingBuffer) Write(t Transition) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.buf[rb.pos] = t
	rb.pos = (rb.pos + 1) % rb.capacity
	if rb.pos == 0 {
		rb.full = true
	}
}

// ReadAll returns the buffered transitions oldest first.
func (rb *RingBuffer) ReadAll() []Transition {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if !rb.full {
		result := make([]Transition, rb.pos)
		copy(result, rb.buf[:rb.pos])
		return result
	}

	result := make([]Transition, rb.capacity)
	copy(result, rb.buf[rb.pos:])
	copy(result[rb.capacity-rb.pos:], rb.buf[:rb.pos])
	return result
}

func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.full {
		return rb.capacity
	}
	return rb.pos
}
