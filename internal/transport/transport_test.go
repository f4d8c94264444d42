package transport

import (
	"bufio"
	"context"
	"errors"
	"net"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"relayd/internal/client"
)

func TestReadLinesSkipsEmptyAndStripsCR(t *testing.T) {
	var got []string
	err := ReadLines(strings.NewReader("a:1\r\n\n\r\nb:2\nlast"), 0, func(l string) { got = append(got, l) })
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []string{"a:1", "b:2", "last"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestReadLinesTooLong(t *testing.T) {
	n := 0
	err := ReadLines(strings.NewReader("ok\n"+strings.Repeat("x", 64)+"\n"), 16, func(string) { n++ })
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("err=%v", err)
	}
	if n != 1 {
		t.Fatalf("expected the short line before the long one, got %d", n)
	}
}

func TestNewUnknownProtocol(t *testing.T) {
	if _, err := New(client.Protocol("UDP"), Options{}); !client.IsInvalidInput(err) {
		t.Fatalf("err=%v", err)
	}
	tr, err := New(client.ProtocolTCP, Options{})
	if err != nil || tr.Protocol() != client.ProtocolTCP {
		t.Fatalf("tcp transport: %v %v", tr, err)
	}
}

func TestBindErrorAddressInUse(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	_, err = NewTCP(Options{}).Bind(ln.Addr().String())
	if !IsBindError(err) {
		t.Fatalf("expected bind error, got %v", err)
	}
	if !strings.Contains(err.Error(), "already in use") {
		t.Fatalf("missing hint: %v", err)
	}
}

func TestServeDeliversLinesAndStops(t *testing.T) {
	tr := NewTCP(Options{Listener: "test"})
	ln, err := tr.Bind("127.0.0.1:0")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	var mu sync.Mutex
	var got []string
	lines := make(chan struct{}, 8)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- tr.Serve(ctx, ln, func(l string) {
			mu.Lock()
			got = append(got, l)
			mu.Unlock()
			lines <- struct{}{}
		})
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("e:one\n\ne:two\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-lines:
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for line %d", i)
		}
	}
	mu.Lock()
	if !reflect.DeepEqual(got, []string{"e:one", "e:two"}) {
		t.Fatalf("got %q", got)
	}
	mu.Unlock()

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not stop on cancel")
	}
	if n := tr.Tracker().Len(); n != 0 {
		t.Fatalf("tracked connections after stop: %d", n)
	}
}

func TestConnectionErrorDoesNotStopListener(t *testing.T) {
	tr := NewTCP(Options{MaxLineBytes: 8})
	ln, err := tr.Bind("127.0.0.1:0")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	got := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Serve(ctx, ln, func(l string) { got <- l }) }()

	bad, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_, _ = bad.Write([]byte(strings.Repeat("x", 32) + "\n"))
	bad.Close()

	good, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer good.Close()
	_, _ = good.Write([]byte("a:b\n"))
	select {
	case l := <-got:
		if l != "a:b" {
			t.Fatalf("line=%q", l)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second connection was not served")
	}
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(1)
	release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if l.InUse() != 1 {
		t.Fatalf("in use=%d", l.InUse())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wait to time out, got %v", err)
	}
	release()
	if l.InUse() != 0 {
		t.Fatalf("in use after release=%d", l.InUse())
	}

	unbounded := NewLimiter(0)
	for i := 0; i < 100; i++ {
		if _, err := unbounded.Acquire(context.Background()); err != nil {
			t.Fatalf("unbounded acquire: %v", err)
		}
	}
}

func TestConnTracker(t *testing.T) {
	tr := NewConnTracker()
	a, b := net.Pipe()
	defer b.Close()
	untrack := tr.Add(a)
	if tr.Len() != 1 {
		t.Fatalf("len=%d", tr.Len())
	}
	tr.CloseAll()
	if _, err := a.Write([]byte("x")); err == nil {
		t.Fatalf("expected closed conn")
	}
	untrack()
	if tr.Len() != 0 {
		t.Fatalf("len after untrack=%d", tr.Len())
	}
}

func TestRunnerLifecycle(t *testing.T) {
	var r Runner
	if r.Addr() != "" {
		t.Fatalf("addr before start")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close before start: %v", err)
	}
	tr := NewTCP(Options{})
	err := r.Start(context.Background(), "127.0.0.1:0", tr.Bind, func(ctx context.Context, ln net.Listener) error {
		return tr.Serve(ctx, ln, func(string) {})
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if r.Addr() == "" {
		t.Fatalf("no addr after start")
	}
	if err := r.Start(context.Background(), "127.0.0.1:0", tr.Bind, nil); err == nil {
		t.Fatalf("second start should fail")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-r.Done():
	default:
		t.Fatalf("done not closed after Close")
	}
}

func TestRunnerBindFailure(t *testing.T) {
	var r Runner
	err := r.Start(context.Background(), "256.0.0.1:bad", Listen, nil)
	if !IsBindError(err) {
		t.Fatalf("err=%v", err)
	}
	if r.Addr() != "" {
		t.Fatalf("addr set after failed bind")
	}
}
