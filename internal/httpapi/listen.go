package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"relayd/internal/transport"
)

// Server runs the admin API on its own listener.
type Server struct {
	http *http.Server
	ln   net.Listener
	done chan struct{}
}

// Start binds addr and serves h in the background. Requests inherit ctx.
func Start(ctx context.Context, addr string, h http.Handler) (*Server, error) {
	ln, err := transport.Listen(addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		http: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		},
		ln:   ln,
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && zlog != nil {
			zlog.Error().Err(err).Msg("admin server stopped")
		}
	}()
	if zlog != nil {
		zlog.Info().Str("addr", s.Addr()).Msg("admin api listening")
	}
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Shutdown drains in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	<-s.done
	return err
}
