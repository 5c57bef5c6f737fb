package stream

import (
	"sync"

	"github.com/TYDev01/009-MarketPlace/internal/model"
)

// Buffer is a thread-safe event queue backed by a ring that doubles its
// capacity when it fills up, so a slow consumer delays delivery instead
// of dropping events or blocking the producer.
type Buffer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []model.Event
	head     int // read position
	tail     int // write position
	count    int
	capacity int
	closed   bool
}

// NewBuffer creates a buffer with the given initial capacity.
func NewBuffer(initialCapacity int) *Buffer {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &Buffer{
		buf:      make([]model.Event, initialCapacity),
		capacity: initialCapacity,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send enqueues an event, growing the ring when full. Returns false if
// the buffer is closed.
func (b *Buffer) Send(ev model.Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	if b.count == b.capacity {
		b.grow()
	}

	b.buf[b.tail] = ev
	b.tail = (b.tail + 1) % b.capacity
	b.count++

	b.cond.Signal()
	return true
}

// Receive dequeues an event, blocking until one is available or the
// buffer is closed. Returns false once the buffer is closed and drained.
func (b *Buffer) Receive() (model.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		return model.Event{}, false
	}
	return b.takeLocked(), true
}

// TryReceive dequeues an event without blocking. Returns false when the
// buffer is empty.
func (b *Buffer) TryReceive() (model.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return model.Event{}, false
	}
	return b.takeLocked(), true
}

// Close closes the buffer. Sends are rejected afterwards; receivers
// drain the remaining events and then get a closed signal.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
}

// Len returns the number of queued events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the current ring capacity.
func (b *Buffer) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// takeLocked removes the head event. Caller must hold the lock with
// count > 0.
func (b *Buffer) takeLocked() model.Event {
	ev := b.buf[b.head]
	b.buf[b.head] = model.Event{}
	b.head = (b.head + 1) % b.capacity
	b.count--
	return ev
}

// grow doubles the ring capacity. Caller must hold the lock.
func (b *Buffer) grow() {
	newBuf := make([]model.Event, b.capacity*2)
	if b.count > 0 {
		if b.head < b.tail {
			copy(newBuf, b.buf[b.head:b.tail])
		} else {
			n := copy(newBuf, b.buf[b.head:])
			copy(newBuf[n:], b.buf[:b.tail])
		}
	}
	b.buf = newBuf
	b.head = 0
	b.tail = b.count
	b.capacity = len(newBuf)
}
