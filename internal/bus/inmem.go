package bus

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// InMemoryBus fans events out to subscriber channels. Slow subscribers
// drop events rather than blocking the engine's loops.
type InMemoryBus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// NewInMemoryBus creates an empty bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{}
}

// Subscribe returns a channel receiving every published event. The
// buffer absorbs bursts; events beyond it are dropped for that
// subscriber.
func (b *InMemoryBus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 256
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers the event to all subscribers without blocking.
func (b *InMemoryBus) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Warn().
				Str("topic", string(event.Topic)).
				Msg("bus: subscriber buffer full, event dropped")
		}
	}
	return nil
}

// Close closes all subscriber channels.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// MultiPublisher fans one Publish out to several publishers.
type MultiPublisher []Publisher

// Publish sends the event to every underlying publisher, returning the
// first error after attempting all of them.
func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every underlying publisher.
func (m MultiPublisher) Close() {
	for _, p := range m {
		p.Close()
	}
}
