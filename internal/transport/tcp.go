package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"relayd/internal/client"
	"relayd/internal/metrics"
)

// Handler serves one accepted connection. The connection is closed after
// the handler returns.
type Handler func(ctx context.Context, conn net.Conn, log zerolog.Logger)

// TCP is the newline-delimited stream transport.
type TCP struct {
	opts Options
}

// NewTCP returns a TCP transport.
func NewTCP(o Options) *TCP {
	return &TCP{opts: o.withDefaults()}
}

func (t *TCP) Protocol() client.Protocol { return client.ProtocolTCP }

// Tracker returns the live-connection tracker.
func (t *TCP) Tracker() *ConnTracker { return t.opts.Tracker }

// Bind listens on addr.
func (t *TCP) Bind(addr string) (net.Listener, error) {
	return Listen(addr)
}

// Listen opens a TCP listener, wrapping failures as BindErrors.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ErrBind(addr, err)
	}
	return ln, nil
}

// Serve reads lines from every connection on ln and passes each to consume.
func (t *TCP) Serve(ctx context.Context, ln net.Listener, consume MessageConsumer) error {
	limit := t.opts.MaxLineBytes
	return Accept(ctx, ln, func(_ context.Context, conn net.Conn, log zerolog.Logger) {
		err := ReadLines(conn, limit, consume)
		switch {
		case err == nil, errors.Is(err, net.ErrClosed):
		case errors.Is(err, bufio.ErrTooLong):
			log.Warn().Int("max_line_bytes", limit).Msg("line too long; closing connection")
		default:
			log.Debug().Err(err).Msg("connection read failed")
		}
	}, t.opts)
}

// Accept runs the accept loop on ln, one goroutine per connection, until ctx
// ends or ln is closed. Temporary accept errors are retried with backoff.
// On return every tracked connection is closed and all handlers have exited.
func Accept(ctx context.Context, ln net.Listener, h Handler, o Options) error {
	o = o.withDefaults()
	log := o.Logger.With().Str("listener", o.Listener).Str("addr", ln.Addr().String()).Logger()
	limiter := NewLimiter(o.MaxConnections)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer func() {
		o.Tracker.CloseAll()
		wg.Wait()
	}()

	var backoff time.Duration
	for {
		release, err := limiter.Acquire(ctx)
		if err != nil {
			return nil
		}
		conn, err := ln.Accept()
		if err != nil {
			release()
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if (errors.As(err, &ne) && ne.Timeout()) || isTransient(err) {
				backoff = nextBackoff(backoff)
				log.Warn().Err(err).Dur("retry_in", backoff).Msg("accept failed")
				select {
				case <-time.After(backoff):
					continue
				case <-ctx.Done():
					return nil
				}
			}
			return err
		}
		backoff = 0

		untrack := o.Tracker.Add(conn)
		done := metrics.ConnOpened(o.Listener)
		connLog := log.With().Str("conn", uuid.NewString()).Str("remote", conn.RemoteAddr().String()).Logger()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer release()
			defer done()
			defer untrack()
			defer conn.Close()
			connLog.Debug().Msg("connection opened")
			h(ctx, conn, connLog)
			connLog.Debug().Msg("connection closed")
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

// ReadLines invokes consume for every non-empty line read from r. Lines
// longer than limit end the read with bufio.ErrTooLong. A trailing '\r' is
// stripped by the scanner.
func ReadLines(r io.Reader, limit int, consume MessageConsumer) error {
	if limit <= 0 {
		limit = DefaultMaxLineBytes
	}
	sc := bufio.NewScanner(r)
	initial := 64 * 1024
	if initial > limit {
		initial = limit
	}
	sc.Buffer(make([]byte, 0, initial), limit)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		consume(line)
	}
	return sc.Err()
}
