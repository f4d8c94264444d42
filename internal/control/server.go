package control

import (
	"bufio"
	"context"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"relayd/internal/client"
	"relayd/internal/metrics"
	"relayd/internal/registry"
	"relayd/internal/transport"
)

// DefaultAddr is the control-plane listen address.
const DefaultAddr = "0.0.0.0:49153"

// Config tunes the control server. Zero values take the defaults.
type Config struct {
	Addr string
	// MaxConnections bounds concurrent sessions; 0 is unbounded.
	MaxConnections int
	// MaxLineBytes caps one command line; 0 is transport.DefaultMaxLineBytes.
	MaxLineBytes int
	// ClientOptions are applied to clients built by REGISTER.
	ClientOptions []client.Option
}

// Server is the registration listener.
type Server struct {
	Config   Config
	Registry *registry.Registry

	log zerolog.Logger
	run transport.Runner
}

// New returns a Server mutating reg.
func New(cfg Config, reg *registry.Registry) *Server {
	return &Server{Config: cfg, Registry: reg, log: zerolog.Nop()}
}

// SetLogger installs a structured logger.
func (s *Server) SetLogger(l zerolog.Logger) {
	s.log = l.With().Str("component", "control").Logger()
}

// Start binds the listener and serves sessions in the background.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.Config
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	proc := &Processor{Registry: s.Registry, ClientOptions: cfg.ClientOptions}
	opts := transport.Options{
		MaxLineBytes:   cfg.MaxLineBytes,
		MaxConnections: cfg.MaxConnections,
		Listener:       metrics.ListenerControl,
		Logger:         s.log,
	}
	err := s.run.Start(ctx, cfg.Addr, transport.Listen, func(ctx context.Context, ln net.Listener) error {
		return transport.Accept(ctx, ln, func(_ context.Context, conn net.Conn, log zerolog.Logger) {
			serveSession(conn, proc, cfg.MaxLineBytes, log)
		}, opts)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("addr", s.Addr()).Msg("control plane listening")
	return nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.run.Addr() }

// Done is closed when the server stops.
func (s *Server) Done() <-chan struct{} { return s.run.Done() }

// Close stops accepting and ends open sessions.
func (s *Server) Close() error { return s.run.Close() }

// serveSession writes the banner, then answers one response per command
// until EOF or QUIT.
func serveSession(conn net.Conn, proc *Processor, limit int, log zerolog.Logger) {
	w := bufio.NewWriter(conn)
	for _, l := range Banner {
		w.WriteString(l + "\n")
	}
	if err := w.Flush(); err != nil {
		return
	}

	if limit <= 0 {
		limit = transport.DefaultMaxLineBytes
	}
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), limit)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		resp := proc.Process(line)
		metrics.Command(resp.Keyword, resp.OK)
		ev := log.Debug()
		if !resp.OK {
			ev = log.Info()
		}
		ev.Str("command", resp.Keyword).Bool("ok", resp.OK).Msg(firstLine(resp.Text))

		w.WriteString(resp.String() + "\n")
		if err := w.Flush(); err != nil {
			log.Debug().Err(err).Msg("write failed")
			return
		}
		if resp.Quit {
			return
		}
	}
	if err := sc.Err(); err != nil {
		log.Debug().Err(err).Msg("session read failed")
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
