package registry

import (
	"errors"
	"fmt"

	"relayd/internal/client"
)

// Spec describes a producer declared outside the control plane, e.g. in the
// config file or a PRODUCER_<NAME> environment variable.
type Spec struct {
	ID     string   `json:"id" yaml:"id" toml:"id"`
	URI    string   `json:"uri" yaml:"uri" toml:"uri"`
	Events []string `json:"events,omitempty" yaml:"events,omitempty" toml:"events,omitempty"`
}

// Load registers every spec. Specs that fail to build a client are skipped
// and reported together; valid ones are still registered.
func (r *Registry) Load(specs []Spec, opts ...client.Option) (int, error) {
	var errs []error
	n := 0
	for _, s := range specs {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("producer %q: empty id", s.URI))
			continue
		}
		c, err := client.FromURI(s.URI, opts...)
		if err != nil {
			errs = append(errs, fmt.Errorf("producer %s: %w", s.ID, err))
			continue
		}
		r.AddProducerWithEvents(s.ID, c, s.Events...)
		n++
	}
	return n, errors.Join(errs...)
}
