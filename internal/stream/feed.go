package stream

import (
	"sync"

	"github.com/TYDev01/009-MarketPlace/internal/model"
)

// DefaultSubscriberCapacity is the initial buffer capacity handed to new
// subscribers.
const DefaultSubscriberCapacity = 256

// Feed broadcasts every published event to all current subscribers. It
// satisfies the marketplace's EventSink.
type Feed struct {
	mu     sync.Mutex
	subs   map[*Buffer]struct{}
	closed bool
}

// NewFeed creates a feed with no subscribers.
func NewFeed() *Feed {
	return &Feed{subs: make(map[*Buffer]struct{})}
}

// Publish delivers an event to every subscriber. Never blocks: each
// subscriber buffer grows as needed.
func (f *Feed) Publish(ev model.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for sub := range f.subs {
		sub.Send(ev)
	}
}

// Subscribe registers a new subscriber and returns its buffer. The
// subscriber sees only events published after this call.
func (f *Feed) Subscribe(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultSubscriberCapacity
	}
	sub := NewBuffer(capacity)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		sub.Close()
		return sub
	}
	f.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a subscriber and closes its buffer.
func (f *Feed) Unsubscribe(sub *Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[sub]; !ok {
		return
	}
	delete(f.subs, sub)
	sub.Close()
}

// Close shuts the feed down, closing every subscriber buffer. Later
// publishes are dropped and later subscribers get an already-closed
// buffer.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for sub := range f.subs {
		sub.Close()
		delete(f.subs, sub)
	}
}

// Subscribers returns the current subscriber count.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
