// Package ingress serves the inbound message listener: every line received
// is decoded and routed to the producers subscribed to its event.
package ingress

import (
	"context"
	"net"

	"github.com/rs/zerolog"

	"relayd/internal/client"
	"relayd/internal/metrics"
	"relayd/internal/registry"
	"relayd/internal/transport"
)

// Server is the ingress listener.
type Server struct {
	Config   Config
	Registry *registry.Registry

	log    zerolog.Logger
	run    transport.Runner
	router *Router
}

// New returns a Server routing through reg.
func New(cfg Config, reg *registry.Registry) *Server {
	return &Server{Config: cfg, Registry: reg, log: zerolog.Nop()}
}

// SetLogger installs a structured logger.
func (s *Server) SetLogger(l zerolog.Logger) {
	s.log = l.With().Str("component", "ingress").Logger()
}

// Start binds the listener and serves it in the background. A bind failure
// is returned as a transport bind error.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.Config.withDefaults()
	tr, err := transport.New(client.ProtocolTCP, transport.Options{
		MaxLineBytes:   cfg.MaxLineBytes,
		MaxConnections: cfg.MaxConnections,
		Listener:       metrics.ListenerIngress,
		Logger:         s.log,
	})
	if err != nil {
		return err
	}
	s.router = &Router{Registry: s.Registry, Timeout: cfg.ForwardTimeout, Log: s.log}
	err = s.run.Start(ctx, cfg.Addr, tr.Bind, func(ctx context.Context, ln net.Listener) error {
		return tr.Serve(ctx, ln, s.router.Consume)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("addr", s.Addr()).Str("protocol", tr.Protocol().String()).Msg("ingress listening")
	return nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.run.Addr() }

// Done is closed when the server stops.
func (s *Server) Done() <-chan struct{} { return s.run.Done() }

// Close stops accepting and closes open connections.
func (s *Server) Close() error { return s.run.Close() }
