package registry

import (
	"context"
	"sort"
	"sync"
	"testing"

	"relayd/internal/client"
)

// mockClient records every payload it is asked to send.
type mockClient struct {
	addr string
	err  error

	mu   sync.Mutex
	sent []string
}

func newMock(addr string) *mockClient { return &mockClient{addr: addr} }

func (m *mockClient) Send(ctx context.Context, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, payload)
	return m.err
}
func (m *mockClient) Protocol() client.Protocol { return client.Protocol("MOCK") }
func (m *mockClient) Address() string           { return m.addr }

func (m *mockClient) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// blockingClient never returns from Send until release is closed or ctx ends.
type blockingClient struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func newBlocking() *blockingClient {
	return &blockingClient{release: make(chan struct{}), started: make(chan struct{})}
}

func (b *blockingClient) Send(ctx context.Context, payload string) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}
func (b *blockingClient) Protocol() client.Protocol { return client.Protocol("MOCK") }
func (b *blockingClient) Address() string           { return "blocking:0" }

// checkInvariant verifies that the producer table and the event index agree.
func checkInvariant(t *testing.T, r *Registry) {
	t.Helper()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for event, ids := range r.index {
		if len(ids) == 0 {
			t.Fatalf("empty index entry left for %q", event)
		}
		for id := range ids {
			p, ok := r.producers[id]
			if !ok {
				t.Fatalf("index[%q] references unknown producer %q", event, id)
			}
			if !p.IsSubscribed(event) {
				t.Fatalf("index[%q] has %q but producer is not subscribed", event, id)
			}
		}
	}
	for id, p := range r.producers {
		for _, e := range p.Events() {
			if _, ok := r.index[e][id]; !ok {
				t.Fatalf("producer %q subscribed to %q but missing from index", id, e)
			}
		}
	}
}

func sortedIDs(ds []Delivery) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ProducerID)
	}
	sort.Strings(out)
	return out
}
