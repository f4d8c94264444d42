// Package httpapi serves the admin HTTP API: health, readiness, Prometheus
// metrics and read/remove access to the producer registry.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"relayd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Producers() []types.ProducerInfo
	Producer(id string) (types.ProducerInfo, bool)
	// RemoveProducer reports false when id was not registered.
	RemoveProducer(id string) bool
	Subscribers(event string) types.EventSubscribers
	Status() types.StatusResponse
	Ready() bool
}

// NewMux builds the admin router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(AccessLog)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/producers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ProducersResponse{Producers: svc.Producers()})
	})

	r.Get("/producers/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		info, ok := svc.Producer(id)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "Producer not found: "+id)
			return
		}
		writeJSON(w, http.StatusOK, info)
	})

	r.Delete("/producers/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !svc.RemoveProducer(id) {
			writeJSONError(w, http.StatusNotFound, "Producer not found: "+id)
			return
		}
		if zlog != nil {
			zlog.Info().Str("producer", id).Str("request_id", middleware.GetReqID(r.Context())).Msg("producer removed via admin api")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/events/{event}/subscribers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Subscribers(chi.URLParam(r, "event")))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
