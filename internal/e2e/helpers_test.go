package e2e

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"relayd/internal/config"
	"relayd/internal/control"
	"relayd/internal/relay"
)

// startRelay runs a full relay on loopback ports.
func startRelay(t *testing.T, mutate func(*config.Config)) *relay.Relay {
	t.Helper()
	cfg := config.Config{
		IngressAddr: "127.0.0.1:0",
		ControlAddr: "127.0.0.1:0",
		AdminAddr:   "127.0.0.1:0",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := relay.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = r.Close(ctx)
	})
	return r
}

// sink is a downstream consumer collecting every line it receives.
type sink struct {
	ln    net.Listener
	lines chan string
}

func newSink(t *testing.T) *sink {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &sink{ln: ln, lines: make(chan string, 64)}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				sc := bufio.NewScanner(c)
				for sc.Scan() {
					s.lines <- sc.Text()
				}
			}(conn)
		}
	}()
	return s
}

func (s *sink) URI() string { return "tcp://" + s.ln.Addr().String() }

// expect waits for the next line.
func (s *sink) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-s.lines:
		require.Equal(t, want, got)
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

// expectNone asserts nothing arrives within d.
func (s *sink) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case got := <-s.lines:
		t.Fatalf("unexpected line %q", got)
	case <-time.After(d):
	}
}

func ctl(t *testing.T, r *relay.Relay) *control.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c, err := control.Dial(ctx, r.ControlAddr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func do(t *testing.T, c *control.Client, cmd string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp, err := c.Do(ctx, cmd)
	require.NoError(t, err)
	return resp
}

func publish(t *testing.T, r *relay.Relay, lines ...string) {
	t.Helper()
	conn, err := net.Dial("tcp", r.IngressAddr())
	require.NoError(t, err)
	defer conn.Close()
	for _, l := range lines {
		_, err := conn.Write([]byte(l + "\n"))
		require.NoError(t, err)
	}
}

// expectAll waits for len(want) lines in any order; each send uses its own
// connection so arrival order is not guaranteed.
func (s *sink) expectAll(t *testing.T, want ...string) {
	t.Helper()
	var got []string
	timeout := time.After(3 * time.Second)
	for len(got) < len(want) {
		select {
		case l := <-s.lines:
			got = append(got, l)
		case <-timeout:
			t.Fatalf("timed out: got %q want %q", got, want)
		}
	}
	require.ElementsMatch(t, want, got)
}
