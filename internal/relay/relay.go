// Package relay assembles the daemon: one registry shared by the ingress
// listener, the registration listener and the admin HTTP API.
package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"relayd/internal/config"
	"relayd/internal/control"
	"relayd/internal/events"
	"relayd/internal/httpapi"
	"relayd/internal/ingress"
	"relayd/internal/registry"
)

// Relay owns every listener of one relayd process.
type Relay struct {
	cfg config.Config
	log zerolog.Logger

	reg     *registry.Registry
	ingress *ingress.Server
	control *control.Server
	admin   *httpapi.Server
	nats    *events.NATS

	ingressUp atomic.Bool
	controlUp atomic.Bool
	bindErr   error
}

// New builds a Relay from cfg. Defaults are applied; static producers are
// registered immediately and invalid ones are logged and skipped.
func New(cfg config.Config, log zerolog.Logger) (*Relay, error) {
	cfg = cfg.WithDefaults()
	r := &Relay{cfg: cfg, log: log, reg: registry.New()}
	r.reg.SetLogger(log)

	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSSubject, log.With().Str("component", "events").Logger())
		if err != nil {
			return nil, err
		}
		r.nats = nc
		r.reg.SetEventPublisher(nc)
	}

	n, err := r.reg.Load(cfg.Producers, cfg.ClientOptions()...)
	if err != nil {
		log.Warn().Err(err).Msg("some static producers were skipped")
	}
	if n > 0 {
		log.Info().Int("producers", n).Msg("static producers registered")
	}

	r.ingress = ingress.New(ingress.Config{
		Addr:           cfg.IngressAddr,
		ForwardTimeout: cfg.ForwardTimeout.Duration,
		MaxConnections: cfg.MaxConnections,
		MaxLineBytes:   cfg.MaxLineBytes,
	}, r.reg)
	r.ingress.SetLogger(log)
	r.control = control.New(control.Config{
		Addr:           cfg.ControlAddr,
		MaxConnections: cfg.MaxConnections,
		MaxLineBytes:   cfg.MaxLineBytes,
		ClientOptions:  cfg.ClientOptions(),
	}, r.reg)
	r.control.SetLogger(log)
	return r, nil
}

// Registry returns the shared producer registry.
func (r *Relay) Registry() *registry.Registry { return r.reg }

// Start binds every listener independently. A listener that cannot bind is
// logged and stays down while the others serve; Start fails only when
// neither the ingress nor the registration listener is up. The admin API
// is optional and never fails Start.
func (r *Relay) Start(ctx context.Context) error {
	var errs []error
	if err := r.ingress.Start(ctx); err != nil {
		r.log.Error().Err(err).Str("listener", "ingress").Msg("listener failed to bind")
		errs = append(errs, err)
	} else {
		track(r.ingress.Done(), &r.ingressUp)
	}
	if err := r.control.Start(ctx); err != nil {
		r.log.Error().Err(err).Str("listener", "control").Msg("listener failed to bind")
		errs = append(errs, err)
	} else {
		track(r.control.Done(), &r.controlUp)
	}
	r.bindErr = errors.Join(errs...)
	if !r.ingressUp.Load() && !r.controlUp.Load() {
		return r.bindErr
	}

	if r.cfg.AdminEnabled() {
		httpapi.SetLogger(r.log)
		httpapi.SetCORSOptions(len(r.cfg.CORSOrigins) > 0, r.cfg.CORSOrigins, nil, nil)
		svc := &httpapi.RegistryService{
			Registry:       r.reg,
			IngressAddr:    r.IngressAddr,
			ControlAddr:    r.ControlAddr,
			IngressServing: r.ingressUp.Load,
			ControlServing: r.controlUp.Load,
			ReadyFunc:      r.Ready,
			Started:        time.Now(),
		}
		admin, err := httpapi.Start(ctx, r.cfg.AdminAddr, httpapi.NewMux(svc))
		if err != nil {
			r.log.Error().Err(err).Str("listener", "admin").Msg("listener failed to bind")
			r.bindErr = errors.Join(r.bindErr, err)
		} else {
			r.admin = admin
		}
	}
	return nil
}

// track marks up while the listener behind done is serving.
func track(done <-chan struct{}, up *atomic.Bool) {
	up.Store(true)
	go func() {
		<-done
		up.Store(false)
	}()
}

// BindErr returns the bind failures of listeners left down by Start.
func (r *Relay) BindErr() error { return r.bindErr }

// Ready reports whether both the ingress and registration listeners serve.
func (r *Relay) Ready() bool { return r.ingressUp.Load() && r.controlUp.Load() }

// IngressServing reports whether the ingress listener is accepting.
func (r *Relay) IngressServing() bool { return r.ingressUp.Load() }

// ControlServing reports whether the registration listener is accepting.
func (r *Relay) ControlServing() bool { return r.controlUp.Load() }

func (r *Relay) IngressAddr() string { return r.ingress.Addr() }
func (r *Relay) ControlAddr() string { return r.control.Addr() }

// AdminAddr returns the admin API address, or "" when disabled.
func (r *Relay) AdminAddr() string {
	if r.admin == nil {
		return ""
	}
	return r.admin.Addr()
}

// Close stops every listener and flushes the event publisher.
func (r *Relay) Close(ctx context.Context) error {
	r.ingressUp.Store(false)
	r.controlUp.Store(false)
	var errs []error
	if r.admin != nil {
		errs = append(errs, r.admin.Shutdown(ctx))
	}
	errs = append(errs, r.ingress.Close(), r.control.Close())
	if r.nats != nil {
		r.nats.Close()
	}
	return errors.Join(errs...)
}
