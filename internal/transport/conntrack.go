package transport

import (
	"net"
	"sync/atomic"

	"github.com/alphadose/haxmap"
)

// ConnTracker records live connections so shutdown can close them.
type ConnTracker struct {
	next  atomic.Uint64
	conns *haxmap.Map[uint64, net.Conn]
}

func NewConnTracker() *ConnTracker {
	return &ConnTracker{conns: haxmap.New[uint64, net.Conn]()}
}

// Add tracks c and returns the func that untracks it.
func (t *ConnTracker) Add(c net.Conn) func() {
	id := t.next.Add(1)
	t.conns.Set(id, c)
	return func() { t.conns.Del(id) }
}

// Len returns the number of tracked connections.
func (t *ConnTracker) Len() int { return int(t.conns.Len()) }

// CloseAll closes every tracked connection. Entries are removed by their
// owners when the handlers return.
func (t *ConnTracker) CloseAll() {
	t.conns.ForEach(func(_ uint64, c net.Conn) bool {
		_ = c.Close()
		return true
	})
}
