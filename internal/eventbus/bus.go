package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Dispatch lifecycle event types.
const (
	TypeSent      = "dispatch.sent"
	TypeFailed    = "dispatch.failed"
	TypeSkipped   = "dispatch.skipped"
	TypeExhausted = "dispatch.exhausted"
)

// DeliveryEvent is the payload attached to dispatch lifecycle events.
// Keep it small; Data may be logged/serialized by subscribers.
type DeliveryEvent struct {
	CampaignID string    `json:"campaign_id"`
	Channel    string    `json:"channel"`
	Kind       string    `json:"kind,omitempty"`
	Recipients int       `json:"recipients,omitempty"`
	Mode       string    `json:"mode"` // "broadcast" or "fallback"
	At         time.Time `json:"at"`
	Error      string    `json:"error,omitempty"`
}

// Event is a lightweight, in-memory signal used to decouple components.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST use buffered channels.
//   - Slow subscribers may drop events (bounded backpressure).
type Event struct {
	Type string
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a simple in-memory fanout bus.
//
// It intentionally does not own any background goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Snapshot subscribers so Publish doesn't hold locks while sending.
	b.mu.RLock()
	chs := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// Non-blocking delivery. If the subscriber is slow, we drop.
		// If a subscriber unsubscribes concurrently and the channel closes,
		// recover from a possible panic (send on closed channel).
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	id := b.seq.Add(1)
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		if cur, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(cur)
		}
		b.mu.Unlock()
	}
	return ch, unsub
}
