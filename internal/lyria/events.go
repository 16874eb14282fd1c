package lyria

import (
	"sync"
	"time"
)

// EventType tags an Event
type EventType int

const (
	EventStateChanged EventType = iota
	EventError
	EventFiltered
	EventTimeUpdated
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "playback-state-changed"
	case EventError:
		return "error"
	case EventFiltered:
		return "filtered-prompt"
	case EventTimeUpdated:
		return "playback-time-updated"
	}
	return "unknown"
}

// Event is a notification for the presentation layer. Which fields are set
// depends on Type.
type Event struct {
	Type EventType

	State   PlaybackState // EventStateChanged
	Message string        // EventError
	Text    string        // EventFiltered
	Reason  string        // EventFiltered
	Elapsed time.Duration // EventTimeUpdated
}

// Listener receives events in emission order on a dedicated goroutine, so it
// may call back into the Manager.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// broker fans events out without ever blocking the publisher
type broker struct {
	mu        sync.Mutex
	pending   []Event
	listeners []subscription
	nextID    uint64
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newBroker() *broker {
	b := &broker{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *broker) publish(e Event) {
	b.mu.Lock()
	b.pending = append(b.pending, e)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *broker) subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// run delivers batches until close, then flushes whatever was published
// before close.
func (b *broker) run() {
	for {
		select {
		case <-b.done:
			b.deliver()
			return
		case <-b.wake:
			b.deliver()
		}
	}
}

func (b *broker) deliver() {
	for {
		b.mu.Lock()
		batch := b.pending
		b.pending = nil
		listeners := append([]subscription(nil), b.listeners...)
		b.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, e := range batch {
			for _, l := range listeners {
				l.fn(e)
			}
		}
	}
}

func (b *broker) close() {
	b.closeOnce.Do(func() { close(b.done) })
}
