package registry

import (
	"context"

	"relayd/internal/client"
)

// Delivery is the outcome of one send within a fan-out call.
type Delivery struct {
	ProducerID string
	Err        error
}

// Failed counts deliveries with a non-nil error.
func Failed(ds []Delivery) int {
	n := 0
	for _, d := range ds {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// ForwardTo sends payload to one producer and returns the client's error
// unchanged. Unknown IDs fail with a not-found error.
func (r *Registry) ForwardTo(ctx context.Context, id, payload string) error {
	p, ok := r.Get(id)
	if !ok {
		return ErrProducerNotFound(id)
	}
	return p.Forward(ctx, payload)
}

// ForwardToAll sends payload to every registered producer. ctx bounds the
// call as for ForwardToEvent.
func (r *Registry) ForwardToAll(ctx context.Context, payload string) []Delivery {
	r.mu.RLock()
	targets := make([]*Producer, 0, len(r.producers))
	for _, p := range r.producers {
		targets = append(targets, p)
	}
	r.mu.RUnlock()
	return fanOut(ctx, targets, payload, nil)
}

// ForwardToEvent sends payload to the producers subscribed to event. An
// event without subscribers yields an empty result.
//
// The call returns once every send finishes or ctx ends. A client that
// ignores cancellation holds it until ctx ends, so callers must pass a
// context with a deadline; ingress.Router does.
func (r *Registry) ForwardToEvent(ctx context.Context, event, payload string) []Delivery {
	r.mu.RLock()
	ids := r.index[event]
	targets := make([]*Producer, 0, len(ids))
	for id := range ids {
		targets = append(targets, r.producers[id])
	}
	r.mu.RUnlock()
	return fanOut(ctx, targets, payload, nil)
}

// ForwardToMany sends payload to the listed producers. Unknown or duplicate
// IDs are reported once each; unknown ones carry a not-found error.
func (r *Registry) ForwardToMany(ctx context.Context, ids []string, payload string) []Delivery {
	seen := make(map[string]struct{}, len(ids))
	var missing []Delivery
	targets := make([]*Producer, 0, len(ids))
	r.mu.RLock()
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.producers[id]; ok {
			targets = append(targets, p)
		} else {
			missing = append(missing, Delivery{ProducerID: id, Err: ErrProducerNotFound(id)})
		}
	}
	r.mu.RUnlock()
	return fanOut(ctx, targets, payload, missing)
}

// fanOut sends to every target concurrently and collects one Delivery per
// target. When ctx ends first, targets still in flight are reported with
// the context error and left to finish in the background.
func fanOut(ctx context.Context, targets []*Producer, payload string, out []Delivery) []Delivery {
	if len(targets) == 0 {
		if out == nil {
			out = []Delivery{}
		}
		return out
	}
	results := make(chan Delivery, len(targets))
	pending := make(map[string]*Producer, len(targets))
	for _, p := range targets {
		pending[p.id] = p
		go func(p *Producer) {
			results <- Delivery{ProducerID: p.id, Err: p.Forward(ctx, payload)}
		}(p)
	}

	for len(pending) > 0 {
		select {
		case d := <-results:
			delete(pending, d.ProducerID)
			out = append(out, d)
		case <-ctx.Done():
			// Take whatever already finished before giving up on the rest.
			for drained := false; !drained; {
				select {
				case d := <-results:
					delete(pending, d.ProducerID)
					out = append(out, d)
				default:
					drained = true
				}
			}
			for id, p := range pending {
				out = append(out, Delivery{ProducerID: id, Err: client.ErrDelivery(p.Address(), ctx.Err())})
			}
			return out
		}
	}
	return out
}
