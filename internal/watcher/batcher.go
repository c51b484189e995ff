package watcher

import (
	"sync"
	"time"
)

// Batcher collects events and emits them as one batch after a quiet
// period. Every Add resets the timer, so a burst of changes produces a
// single emission once it settles.
type Batcher struct {
	delay  time.Duration
	timer  *time.Timer
	mu     sync.Mutex
	events []Event
	emit   func([]Event)
}

func NewBatcher(delay time.Duration, emit func([]Event)) *Batcher {
	return &Batcher{delay: delay, emit: emit}
}

// Add appends an event to the pending batch and restarts the quiet
// timer.
func (b *Batcher) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.fire)
}

func (b *Batcher) fire() {
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.timer = nil
	b.mu.Unlock()

	if len(events) > 0 && b.emit != nil {
		b.emit(events)
	}
}

// Flush emits any pending events immediately.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	b.fire()
}

// Cancel drops any pending events without emitting them.
func (b *Batcher) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.events = nil
}

// Pending returns the number of events waiting to be emitted.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
