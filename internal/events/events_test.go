package events

import (
	"errors"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestMemoryPublisherCopies(t *testing.T) {
	p := NewMemory()
	p.Publish(New(ProducerRegistered, "p1", nil))
	p.Publish(New(ProducerRemoved, "p1", map[string]any{"events": 0}))
	evts := p.Events()
	if len(evts) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evts))
	}
	evts[0].Name = "mutated"
	if p.Events()[0].Name != ProducerRegistered {
		t.Fatalf("internal slice mutated via returned copy")
	}
	names := p.Names()
	if names[0] != ProducerRegistered || names[1] != ProducerRemoved {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestNewStampsIDAndTime(t *testing.T) {
	a := New(DeliveryFailed, "p", nil)
	b := New(DeliveryFailed, "p", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Time.IsZero() {
		t.Fatalf("expected timestamp")
	}
}

type fakeConn struct {
	mu   sync.Mutex
	subj []string
	data [][]byte
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subj = append(f.subj, subject)
	f.data = append(f.data, data)
	return f.err
}

func TestNATSPublisherEncodesJSON(t *testing.T) {
	fc := &fakeConn{}
	p := NewNATS(fc, "", zerolog.Nop())
	if p.Subject() != DefaultSubject {
		t.Fatalf("subject=%q", p.Subject())
	}
	p.Publish(New(ProducerSubscribed, "p1", map[string]any{"event": "orders"}))
	if len(fc.data) != 1 || fc.subj[0] != DefaultSubject {
		t.Fatalf("expected one publish on default subject, got %v", fc.subj)
	}
	var got Event
	if err := json.Unmarshal(fc.data[0], &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got.Name != ProducerSubscribed || got.ProducerID != "p1" || got.Fields["event"] != "orders" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestNATSPublisherSwallowsErrors(t *testing.T) {
	fc := &fakeConn{err: errors.New("boom")}
	p := NewNATS(fc, "custom.subject", zerolog.Nop())
	p.Publish(New(DeliveryFailed, "p1", nil))
	if fc.subj[0] != "custom.subject" {
		t.Fatalf("subject=%q", fc.subj[0])
	}
	p.Close()
}
