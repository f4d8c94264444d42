package config

import (
	"errors"
	"fmt"
	"net"

	"relayd/internal/client"
	"relayd/internal/control"
	"relayd/internal/events"
	"relayd/internal/ingress"
	"relayd/internal/transport"
)

const (
	DefaultAdminAddr = "127.0.0.1:9464"
	// AdminOff disables the admin HTTP API.
	AdminOff = "off"
)

// Defaults returns a fully populated configuration.
func Defaults() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills zero values.
func (c Config) WithDefaults() Config {
	if c.IngressAddr == "" {
		c.IngressAddr = ingress.DefaultAddr
	}
	if c.ControlAddr == "" {
		c.ControlAddr = control.DefaultAddr
	}
	if c.AdminAddr == "" {
		c.AdminAddr = DefaultAdminAddr
	}
	if c.SendTimeout.Duration <= 0 {
		c.SendTimeout.Duration = client.DefaultTimeout
	}
	if c.ForwardTimeout.Duration <= 0 {
		c.ForwardTimeout.Duration = ingress.DefaultForwardTimeout
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = transport.DefaultMaxLineBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.NATSSubject == "" {
		c.NATSSubject = events.DefaultSubject
	}
	return c
}

// AdminEnabled reports whether the admin API should be served.
func (c Config) AdminEnabled() bool { return c.AdminAddr != AdminOff }

// Validate checks addresses, limits and producer URIs. All problems are
// reported together.
func (c Config) Validate() error {
	var errs []error
	check := func(name, addr string) {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid address %q", name, addr))
		}
	}
	check("ingress_addr", c.IngressAddr)
	check("control_addr", c.ControlAddr)
	if c.AdminEnabled() {
		check("admin_addr", c.AdminAddr)
	}
	if c.MaxConnections < 0 {
		errs = append(errs, errors.New("max_connections must be >= 0"))
	}
	if c.SendTimeout.Duration < 0 || c.ForwardTimeout.Duration < 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: unknown %q", c.LogFormat))
	}
	seen := map[string]bool{}
	for i, p := range c.Producers {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("producers[%d]: empty id", i))
			continue
		}
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("producers[%d]: duplicate id %q", i, p.ID))
		}
		seen[p.ID] = true
		if _, err := client.FromURI(p.URI); err != nil {
			errs = append(errs, fmt.Errorf("producers[%d] %s: %w", i, p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// ClientOptions returns the options for clients built from this config.
func (c Config) ClientOptions() []client.Option {
	return []client.Option{client.WithTimeout(c.SendTimeout.Duration)}
}
