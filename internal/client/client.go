// Package client delivers payloads to downstream consumers.
//
// A Client is selected by Protocol through New; adding a wire protocol means
// adding a Protocol constant and a case in New, callers stay unchanged.
package client

import (
	"context"
	"net"
	"strings"
	"time"
)

// Protocol names a supported outbound wire protocol.
type Protocol string

const (
	// ProtocolTCP delivers each payload over a fresh TCP connection.
	ProtocolTCP Protocol = "TCP"
)

// DefaultTimeout bounds dial and write for a single send.
const DefaultTimeout = 5 * time.Second

// Client pushes one message to one downstream address.
type Client interface {
	// Send delivers payload. Implementations must honor ctx cancellation.
	Send(ctx context.Context, payload string) error
	Protocol() Protocol
	Address() string
}

// ParseProtocol maps a scheme token (case-insensitive) to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(ProtocolTCP):
		return ProtocolTCP, nil
	default:
		return "", ErrInvalidInput("Unsupported protocol: " + s)
	}
}

func (p Protocol) String() string { return string(p) }

// ParseURI splits "<protocol>://<address>" and validates both halves.
func ParseURI(uri string) (Protocol, string, error) {
	scheme, addr, ok := strings.Cut(uri, "://")
	if !ok || scheme == "" || addr == "" {
		return "", "", ErrInvalidInput("Invalid URI format. Expected: protocol://address")
	}
	proto, err := ParseProtocol(scheme)
	if err != nil {
		return "", "", err
	}
	return proto, addr, nil
}

type options struct {
	timeout time.Duration
	dialer  func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Option customizes a Client built by New.
type Option func(*options)

// WithTimeout overrides DefaultTimeout; non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithDialer replaces the network dialer, mainly for tests.
func WithDialer(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(o *options) {
		if dial != nil {
			o.dialer = dial
		}
	}
}

// New builds the Client for proto targeting addr.
func New(proto Protocol, addr string, opts ...Option) (Client, error) {
	o := options{timeout: DefaultTimeout}
	for _, fn := range opts {
		fn(&o)
	}
	switch proto {
	case ProtocolTCP:
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return nil, ErrInvalidInput("Invalid address: " + addr)
		}
		return newTCPClient(addr, o), nil
	default:
		return nil, ErrInvalidInput("Unsupported protocol: " + string(proto))
	}
}

// FromURI is ParseURI followed by New.
func FromURI(uri string, opts ...Option) (Client, error) {
	proto, addr, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return New(proto, addr, opts...)
}
