package apilog

import (
	"sync"
	"time"
)

// Direction marks which side of a call an entry records.
type Direction string

const (
	DirectionOutgoing Direction = "OUTGOING"
	DirectionIncoming Direction = "INCOMING"
)

// DefaultCapacity bounds the rolling call log.
const DefaultCapacity = 100

// Entry is one recorded request or response.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	Direction Direction `json:"direction"`
	Status    int       `json:"status,omitempty"`
	Body      any       `json:"body"`
}

// Buffer is a bounded, newest-first log of API calls. It is explicit
// state owned by the application shell, not a package-level singleton;
// entries beyond capacity are dropped from the tail.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
	subs     map[int]chan Entry
	nextSub  int
}

// NewBuffer creates a buffer holding at most capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		entries:  make([]Entry, 0, capacity),
		subs:     make(map[int]chan Entry),
	}
}

// Add prepends an entry, truncating to capacity, and fans it out to
// subscribers. Slow subscribers miss entries rather than block the caller.
func (b *Buffer) Add(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	b.entries = append([]Entry{e}, b.entries...)
	if len(b.entries) > b.capacity {
		b.entries = b.entries[:b.capacity]
	}
	subs := make([]chan Entry, 0, len(b.subs))
	for _, ch := range b.subs {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Snapshot returns a copy of the current entries, newest first.
func (b *Buffer) Snapshot() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len reports the number of retained entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Capacity reports the retention bound.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Subscribe registers a listener for new entries. The returned cancel
// function must be called to release the subscription.
func (b *Buffer) Subscribe() (<-chan Entry, func()) {
	ch := make(chan Entry, 16)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
