package event

import "sync"

// Bus fans emitted events out to subscribed handlers. Stats publish from
// whatever goroutine happened to close a window, so subscription state is
// guarded by a read/write mutex.
type Bus struct {
	mu   sync.RWMutex
	subs []Handler
}

func NewBus() *Bus { return &Bus{} }

// Subscribe adds a handler. There is no unsubscribe; sinks live for the
// process lifetime.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, h)
}

// Publish delivers e to every subscribed handler, in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, h := range subs {
		h(e)
	}
}
