package ingress

import "time"

const (
	// DefaultAddr is the ingress listen address.
	DefaultAddr = "0.0.0.0:49152"
	// DefaultForwardTimeout bounds one fan-out.
	DefaultForwardTimeout = 10 * time.Second
)

// Config tunes the ingress server. Zero values take the defaults.
type Config struct {
	Addr           string
	ForwardTimeout time.Duration
	// MaxConnections bounds concurrent ingress connections; 0 is unbounded.
	MaxConnections int
	// MaxLineBytes caps one inbound line; 0 is transport.DefaultMaxLineBytes.
	MaxLineBytes int
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ForwardTimeout <= 0 {
		c.ForwardTimeout = DefaultForwardTimeout
	}
	return c
}
