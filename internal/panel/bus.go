package panel

import (
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/dotcommander/nowpanel/internal/models"
)

// Bus fans panel events out to subscribers. Delivery never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]subscriber
}

type subscriber struct {
	ch    chan models.Event
	kinds []models.EventKind
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string]subscriber)}
}

// Subscribe registers a subscriber for kinds (all kinds when empty) and
// returns its id and channel.
func (b *Bus) Subscribe(bufSize int, kinds ...models.EventKind) (string, <-chan models.Event) {
	id := ulid.Make().String()
	ch := make(chan models.Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = subscriber{ch: ch, kinds: kinds}
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe closes and removes the subscriber.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if s, ok := b.subscribers[id]; ok {
		close(s.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Close unsubscribes everyone.
func (b *Bus) Close() {
	b.mu.Lock()
	for id, s := range b.subscribers {
		close(s.ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

// Publish stamps ev with a fresh id and delivers it.
func (b *Bus) Publish(ev models.Event) {
	ev.ID = ulid.Make().String()
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subscribers {
		if len(s.kinds) > 0 && !slices.Contains(s.kinds, ev.Kind) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}
