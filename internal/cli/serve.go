package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"relayd/internal/config"
	"relayd/internal/relay"
)

type serveFlags struct {
	configPath     string
	envFile        string
	ingressAddr    string
	controlAddr    string
	adminAddr      string
	maxConnections int
}

func newServeCmd(opts *Options) *cobra.Command {
	f := &serveFlags{maxConnections: -1}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ingress and registration listeners",
		Example: "  relayd serve\n" +
			"  relayd serve --config relayd.yaml --ingress-addr 0.0.0.0:49152\n" +
			"  PRODUCER_CONSUMER1=tcp://127.0.0.1:9000 relayd serve",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.SetLogger(newLogger(os.Stderr, opts.LogLevel, opts.LogFormat))
			cfg, err := resolveConfig(f, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (.yaml|.yml|.json|.toml); searched in ./relayd.* when unset")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading RELAYD_* variables")
	cmd.Flags().StringVar(&f.ingressAddr, "ingress-addr", "", "Ingress listen address (default 0.0.0.0:49152)")
	cmd.Flags().StringVar(&f.controlAddr, "control-addr", "", "Registration listen address (default 0.0.0.0:49153)")
	cmd.Flags().StringVar(&f.adminAddr, "admin-addr", "", "Admin HTTP address (default 127.0.0.1:9464, \"off\" disables)")
	cmd.Flags().IntVar(&f.maxConnections, "max-connections", -1, "Concurrent connections per listener (0 = unbounded)")
	return cmd
}

// resolveConfig layers file, environment and flags, in that order.
func resolveConfig(f *serveFlags, opts *Options) (config.Config, error) {
	var cfg config.Config
	path := f.configPath
	if path == "" {
		path, _ = config.Discover()
	}
	if path != "" {
		c, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = c
	}
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return cfg, err
	}
	cfg, err := config.ApplyEnv(cfg, nil)
	if err != nil {
		return cfg, err
	}
	if f.ingressAddr != "" {
		cfg.IngressAddr = f.ingressAddr
	}
	if f.controlAddr != "" {
		cfg.ControlAddr = f.controlAddr
	}
	if f.adminAddr != "" {
		cfg.AdminAddr = f.adminAddr
	}
	if f.maxConnections >= 0 {
		cfg.MaxConnections = f.maxConnections
	}
	cfg.LogLevel = firstNonEmpty(opts.LogLevel, cfg.LogLevel)
	cfg.LogFormat = firstNonEmpty(opts.LogFormat, cfg.LogFormat)
	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

// runServe starts the relay and blocks until ctx ends.
func runServe(ctx context.Context, cfg config.Config) error {
	log := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	r, err := relay.New(cfg, log)
	if err != nil {
		return err
	}
	if err := r.Start(ctx); err != nil {
		r.Close(context.Background())
		return err
	}
	if err := r.BindErr(); err != nil {
		log.Warn().Err(err).
			Bool("ingress", r.IngressServing()).
			Bool("control", r.ControlServing()).
			Msg("running with some listeners down")
	}
	log.Info().
		Str("ingress", r.IngressAddr()).
		Str("control", r.ControlAddr()).
		Str("admin", r.AdminAddr()).
		Int("producers", r.Registry().Count()).
		Msg("relayd started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Close(sctx)
}
