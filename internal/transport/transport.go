// Package transport accepts inbound stream connections and hands every
// non-empty line to a MessageConsumer. It knows nothing about routing.
package transport

import (
	"context"
	"net"

	"github.com/rs/zerolog"

	"relayd/internal/client"
)

// DefaultMaxLineBytes caps a single inbound line.
const DefaultMaxLineBytes = 1 << 20

// MessageConsumer receives one raw line, without its terminator.
type MessageConsumer func(line string)

// Transport binds a listening endpoint and serves it.
type Transport interface {
	// Bind opens the listener. Failures are BindErrors.
	Bind(addr string) (net.Listener, error)
	// Serve accepts connections on ln until ctx ends or ln is closed.
	Serve(ctx context.Context, ln net.Listener, consume MessageConsumer) error
	Protocol() client.Protocol
}

// Options tunes a Transport built by New.
type Options struct {
	// MaxLineBytes caps one line; 0 means DefaultMaxLineBytes.
	MaxLineBytes int
	// MaxConnections bounds concurrent connections; 0 means unbounded.
	MaxConnections int
	// Listener labels connection metrics.
	Listener string
	Logger   zerolog.Logger
	// Tracker records live connections; nil allocates one.
	Tracker *ConnTracker
}

func (o Options) withDefaults() Options {
	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	if o.Tracker == nil {
		o.Tracker = NewConnTracker()
	}
	return o
}

// New returns the Transport for proto.
func New(proto client.Protocol, o Options) (Transport, error) {
	switch proto {
	case client.ProtocolTCP:
		return NewTCP(o), nil
	default:
		return nil, client.ErrInvalidInput("Unsupported protocol: " + string(proto))
	}
}
