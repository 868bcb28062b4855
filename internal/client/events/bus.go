// Package events carries the sync completion signal to display components.
// Delivery is fire-and-forget: current subscribers receive the result,
// subscribers registered afterwards do not, and a slow subscriber is skipped
// rather than blocking the sync engine.
package events

import (
	"sync"

	"github.com/versemark/versemark/internal/models"
)

// Bus is an in-process broadcast of SyncResult values.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan models.SyncResult
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan models.SyncResult)}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away; it closes the channel.
func (b *Bus) Subscribe() (<-chan models.SyncResult, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan models.SyncResult, 1)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers res to every current subscriber without blocking.
func (b *Bus) Publish(res models.SyncResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- res:
		default:
			// subscriber has an undrained result pending; drop
		}
	}
}
