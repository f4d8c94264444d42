package registry

import (
	"context"
	"sort"
	"sync"

	"relayd/internal/client"
	"relayd/pkg/types"
)

// Producer forwards messages to one external consumer through its Client
// and carries the set of events it is subscribed to.
type Producer struct {
	id     string
	client client.Client

	mu     sync.RWMutex
	events map[string]struct{}
}

func newProducer(id string, c client.Client) *Producer {
	return &Producer{id: id, client: c, events: make(map[string]struct{})}
}

func (p *Producer) ID() string                { return p.id }
func (p *Producer) Client() client.Client     { return p.client }
func (p *Producer) Address() string           { return p.client.Address() }
func (p *Producer) Protocol() client.Protocol { return p.client.Protocol() }

// Forward sends payload through the producer's client.
func (p *Producer) Forward(ctx context.Context, payload string) error {
	return p.client.Send(ctx, payload)
}

// IsSubscribed reports whether the producer receives event.
func (p *Producer) IsSubscribed(event string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.events[event]
	return ok
}

// Events returns the subscribed events, sorted.
func (p *Producer) Events() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.events))
	for e := range p.events {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Info is a JSON-friendly view of the producer.
func (p *Producer) Info() types.ProducerInfo {
	return types.ProducerInfo{
		ID:       p.id,
		Protocol: p.Protocol().String(),
		Address:  p.Address(),
		Events:   p.Events(),
	}
}

// subscribe and unsubscribe are only called with the registry lock held.
func (p *Producer) subscribe(event string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[event]; ok {
		return false
	}
	p.events[event] = struct{}{}
	return true
}

func (p *Producer) unsubscribe(event string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.events[event]; !ok {
		return false
	}
	delete(p.events, event)
	return true
}
