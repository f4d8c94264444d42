package transport

import "context"

// Limiter bounds concurrent connections with a channel semaphore. A nil or
// zero-capacity Limiter never blocks.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter returns a Limiter admitting n concurrent holders; n <= 0
// disables the bound.
func NewLimiter(n int) *Limiter {
	if n <= 0 {
		return &Limiter{}
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// Acquire waits for a slot or ctx. The returned func releases it.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if l == nil || l.slots == nil {
		return func() {}, nil
	}
	select {
	case l.slots <- struct{}{}:
		return func() { <-l.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InUse returns the number of held slots.
func (l *Limiter) InUse() int {
	if l == nil || l.slots == nil {
		return 0
	}
	return len(l.slots)
}
