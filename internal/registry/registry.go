package registry

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"relayd/internal/client"
	"relayd/internal/events"
	"relayd/internal/metrics"
	"relayd/pkg/types"
)

// Registry is the producer pool shared by the ingress and control planes.
type Registry struct {
	mu        sync.RWMutex
	producers map[string]*Producer
	// event name -> subscribed producer IDs
	index map[string]map[string]struct{}

	publisher events.Publisher
	log       zerolog.Logger
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		producers: make(map[string]*Producer),
		index:     make(map[string]map[string]struct{}),
		publisher: events.Nop{},
		log:       zerolog.Nop(),
	}
}

// SetEventPublisher installs the lifecycle event sink; nil restores the no-op.
func (r *Registry) SetEventPublisher(p events.Publisher) {
	if p == nil {
		p = events.Nop{}
	}
	r.mu.Lock()
	r.publisher = p
	r.mu.Unlock()
}

// SetLogger installs a structured logger.
func (r *Registry) SetLogger(l zerolog.Logger) {
	r.mu.Lock()
	r.log = l.With().Str("component", "registry").Logger()
	r.mu.Unlock()
}

// Publisher returns the installed lifecycle event sink.
func (r *Registry) Publisher() events.Publisher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.publisher
}

func (r *Registry) publish(e events.Event) {
	r.Publisher().Publish(e)
}

// AddProducer inserts or replaces id with no subscriptions.
func (r *Registry) AddProducer(id string, c client.Client) {
	r.AddProducerWithEvents(id, c)
}

// AddProducerWithEvents inserts or replaces id and subscribes it to evts in
// one critical section. A replaced producer loses its old subscriptions.
// Empty event names are skipped.
func (r *Registry) AddProducerWithEvents(id string, c client.Client, evts ...string) {
	p := newProducer(id, c)

	r.mu.Lock()
	_, replaced := r.producers[id]
	r.dropLocked(id)
	r.producers[id] = p
	for _, e := range evts {
		if e == "" {
			continue
		}
		if p.subscribe(e) {
			r.indexLocked(e, id)
		}
	}
	metrics.SetProducers(len(r.producers))
	log := r.log
	r.mu.Unlock()

	log.Debug().Str("producer", id).Str("address", c.Address()).Strs("events", p.Events()).Bool("replaced", replaced).Msg("producer registered")
	r.publish(events.New(events.ProducerRegistered, id, map[string]any{
		"address":  c.Address(),
		"protocol": c.Protocol().String(),
		"events":   p.Events(),
		"replaced": replaced,
	}))
}

// RemoveProducer deletes id and purges it from every index entry. The
// removed producer is returned; ok is false when id was unknown.
func (r *Registry) RemoveProducer(id string) (*Producer, bool) {
	r.mu.Lock()
	p := r.dropLocked(id)
	if p != nil {
		metrics.SetProducers(len(r.producers))
	}
	log := r.log
	r.mu.Unlock()

	if p == nil {
		return nil, false
	}
	log.Debug().Str("producer", id).Msg("producer removed")
	r.publish(events.New(events.ProducerRemoved, id, map[string]any{"address": p.Address()}))
	return p, true
}

// dropLocked removes id from both maps. Caller holds r.mu.
func (r *Registry) dropLocked(id string) *Producer {
	p, ok := r.producers[id]
	if !ok {
		return nil
	}
	delete(r.producers, id)
	for _, e := range p.Events() {
		r.unindexLocked(e, id)
	}
	return p
}

func (r *Registry) indexLocked(event, id string) {
	ids, ok := r.index[event]
	if !ok {
		ids = make(map[string]struct{})
		r.index[event] = ids
	}
	ids[id] = struct{}{}
}

func (r *Registry) unindexLocked(event, id string) {
	ids, ok := r.index[event]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(r.index, event)
	}
}

// Subscribe adds event to id's subscriptions. Subscribing twice is a no-op.
func (r *Registry) Subscribe(id, event string) error {
	r.mu.Lock()
	p, ok := r.producers[id]
	if !ok {
		r.mu.Unlock()
		return ErrProducerNotFound(id)
	}
	added := p.subscribe(event)
	if added {
		r.indexLocked(event, id)
	}
	r.mu.Unlock()

	if added {
		r.publish(events.New(events.ProducerSubscribed, id, map[string]any{"event": event}))
	}
	return nil
}

// Unsubscribe removes event from id's subscriptions. Removing an event the
// producer is not subscribed to is a no-op.
func (r *Registry) Unsubscribe(id, event string) error {
	r.mu.Lock()
	p, ok := r.producers[id]
	if !ok {
		r.mu.Unlock()
		return ErrProducerNotFound(id)
	}
	removed := p.unsubscribe(event)
	if removed {
		r.unindexLocked(event, id)
	}
	r.mu.Unlock()

	if removed {
		r.publish(events.New(events.ProducerUnsubscribed, id, map[string]any{"event": event}))
	}
	return nil
}

// Get returns the producer registered as id.
func (r *Registry) Get(id string) (*Producer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.producers[id]
	return p, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Count returns the number of registered producers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.producers)
}

// IDs returns all producer IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.producers))
	for id := range r.producers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SubscribedEvents returns every event with at least one subscriber, sorted.
func (r *Registry) SubscribedEvents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.index))
	for e := range r.index {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Subscribers returns the IDs subscribed to event, sorted.
func (r *Registry) Subscribers(event string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.index[event]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a view of every producer, sorted by ID.
func (r *Registry) Snapshot() []types.ProducerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ProducerInfo, 0, len(r.producers))
	for _, p := range r.producers {
		out = append(out, p.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
