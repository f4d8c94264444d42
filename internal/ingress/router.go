package ingress

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"relayd/internal/events"
	"relayd/internal/message"
	"relayd/internal/metrics"
	"relayd/internal/registry"
)

// Router decodes ingress lines and fans them out through the registry.
type Router struct {
	Registry *registry.Registry
	Timeout  time.Duration
	Log      zerolog.Logger
}

// Consume routes one raw line. It satisfies transport.MessageConsumer.
func (rt *Router) Consume(line string) {
	timeout := rt.Timeout
	if timeout <= 0 {
		timeout = DefaultForwardTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	rt.Route(ctx, line)
}

// Route decodes line and forwards its payload to every subscriber of its
// event. Failures are logged per subscriber and never stop the caller.
func (rt *Router) Route(ctx context.Context, line string) []registry.Delivery {
	metrics.IngressLine()
	m := message.Decode(line)
	start := time.Now()
	ds := rt.Registry.ForwardToEvent(ctx, m.EventName, m.Msg)
	failed := registry.Failed(ds)
	metrics.Routed(len(ds), failed, time.Since(start))

	if len(ds) == 0 {
		rt.Log.Debug().Str("event", m.EventName).Msg("no subscribers")
		return ds
	}
	pub := rt.Registry.Publisher()
	for _, d := range ds {
		if d.Err == nil {
			continue
		}
		rt.Log.Warn().Err(d.Err).Str("event", m.EventName).Str("producer", d.ProducerID).Msg("delivery failed")
		pub.Publish(events.New(events.DeliveryFailed, d.ProducerID, map[string]any{
			"event": m.EventName,
			"error": d.Err.Error(),
		}))
	}
	rt.Log.Debug().Str("event", m.EventName).Int("subscribers", len(ds)).Int("failed", failed).Msg("routed")
	return ds
}
