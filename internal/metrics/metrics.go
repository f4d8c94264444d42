// Package metrics holds the Prometheus collectors shared by the ingress,
// control-plane and admin HTTP layers. Collectors register with the default
// registry at init and are exposed by promhttp.Handler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "relayd"

var (
	connectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total accepted connections per listener",
		},
		[]string{"listener"},
	)

	activeConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Currently open connections per listener",
		},
		[]string{"listener"},
	)

	ingressLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingress",
			Name:      "lines_total",
			Help:      "Non-empty lines received on the ingress listener",
		},
	)

	routedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingress",
			Name:      "events_routed_total",
			Help:      "Decoded messages by routing outcome (delivered, unrouted)",
		},
		[]string{"result"},
	)

	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Per-subscriber send outcomes",
		},
		[]string{"result"},
	)

	deliveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Duration of one fan-out call in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	controlCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "control",
			Name:      "commands_total",
			Help:      "Registration commands by keyword and result",
		},
		[]string{"command", "result"},
	)

	producersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "producers",
			Help:      "Registered producers",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of admin HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of admin HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		connectionsTotal, activeConnections,
		ingressLinesTotal, routedTotal,
		deliveriesTotal, deliveryDuration,
		controlCommandsTotal, producersGauge,
		httpRequestsTotal, httpRequestDuration,
	)
}

// Listener labels.
const (
	ListenerIngress = "ingress"
	ListenerControl = "control"
)

// ConnOpened records an accepted connection; call the returned func on close.
func ConnOpened(listener string) func() {
	connectionsTotal.WithLabelValues(listener).Inc()
	g := activeConnections.WithLabelValues(listener)
	g.Inc()
	return g.Dec
}

// IngressLine counts one non-empty inbound line.
func IngressLine() { ingressLinesTotal.Inc() }

// Routed records the outcome of routing one message. A message with no
// subscribers is "unrouted".
func Routed(subscribers, failed int, dur time.Duration) {
	if subscribers == 0 {
		routedTotal.WithLabelValues("unrouted").Inc()
		return
	}
	routedTotal.WithLabelValues("delivered").Inc()
	deliveriesTotal.WithLabelValues("ok").Add(float64(subscribers - failed))
	if failed > 0 {
		deliveriesTotal.WithLabelValues("error").Add(float64(failed))
	}
	deliveryDuration.Observe(dur.Seconds())
}

// Command records one registration command outcome.
func Command(keyword string, ok bool) {
	if keyword == "" {
		keyword = "unknown"
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	controlCommandsTotal.WithLabelValues(keyword, result).Inc()
}

// SetProducers updates the registered-producer gauge.
func SetProducers(n int) { producersGauge.Set(float64(n)) }

// HTTPRequest records one admin API request.
func HTTPRequest(path, method, status string, dur time.Duration) {
	httpRequestsTotal.WithLabelValues(path, method, status).Inc()
	httpRequestDuration.WithLabelValues(path, method, status).Observe(dur.Seconds())
}
