package transport

import (
	"context"
	"errors"
	"net"
	"sync"
)

// ServeFunc serves ln until ctx ends.
type ServeFunc func(ctx context.Context, ln net.Listener) error

// Runner owns one listener and the goroutine serving it. The zero value is
// ready to use; a Runner starts at most once.
type Runner struct {
	mu      sync.Mutex
	ln      net.Listener
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	started bool
}

// Start binds synchronously with bind, then serves in the background. Bind
// failures are returned as-is.
func (r *Runner) Start(ctx context.Context, addr string, bind func(string) (net.Listener, error), serve ServeFunc) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("already started")
	}
	ln, err := bind(addr)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	r.ln = ln
	r.cancel = cancel
	r.started = true
	done := r.doneLocked()
	r.mu.Unlock()

	go func() {
		defer close(done)
		err := serve(ctx, ln)
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}()
	return nil
}

func (r *Runner) doneLocked() chan struct{} {
	if r.done == nil {
		r.done = make(chan struct{})
	}
	return r.done
}

// Addr returns the bound address, or "" before Start.
func (r *Runner) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ln == nil {
		return ""
	}
	return r.ln.Addr().String()
}

// Done is closed once serving has stopped.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doneLocked()
}

// Err returns the serve error once Done is closed.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close stops serving and waits for open connections to finish. Closing a
// Runner that never started is a no-op.
func (r *Runner) Close() error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	cancel()
	<-done
	return r.Err()
}
