package publisher

import (
	"context"
	"sync"

	"github.com/hupe1980/promptmesh/core"
)

// InMemoryPublisher collects published events in order. Safe for concurrent
// use; primarily a test double and demo default.
type InMemoryPublisher struct {
	mu     sync.Mutex
	events []core.DomainEvent
}

// NewInMemoryPublisher constructs an empty in-memory publisher.
func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

// Publish appends the event to the in-memory log.
func (p *InMemoryPublisher) Publish(ctx context.Context, event core.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the published events in publication order.
func (p *InMemoryPublisher) Events() []core.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}
