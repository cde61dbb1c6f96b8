package realtime

import (
	"context"
	"sync"
)

// MemoryBroker fans events out to in-process subscribers. Suitable for a
// single-instance deployment and for tests.
type MemoryBroker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[int]chan Event)}
}

// Publish delivers evt to every subscriber of its table, in call order.
// A subscriber whose buffer is full loses the event.
func (b *MemoryBroker) Publish(_ context.Context, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[evt.Table] {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

// Subscribe registers a listener for one table.
func (b *MemoryBroker) Subscribe(ctx context.Context, table string) (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	if b.subs[table] == nil {
		b.subs[table] = make(map[int]chan Event)
	}
	b.subs[table][id] = ch
	b.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[table], id)
			b.mu.Unlock()
			close(ch)
		})
	}
	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			release()
		}()
	}
	return ch, release
}
