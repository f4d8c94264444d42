package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"relayd/internal/client"
	"relayd/internal/registry"
)

const (
	envPrefix = "RELAYD_"
	// envTransportAddress overrides the ingress address.
	envTransportAddress = "TRANSPORT_ADDRESS"
	// envProducerPrefix declares a static producer: PRODUCER_<NAME>=<uri> [events...]
	envProducerPrefix = "PRODUCER_"
)

// zlog receives warnings about skipped environment entries. Nil discards them.
var zlog *zerolog.Logger

// SetLogger installs the logger used while reading configuration.
func SetLogger(l zerolog.Logger) {
	l = l.With().Str("component", "config").Logger()
	zlog = &l
}

func warn(key, value string, err error) {
	if zlog == nil {
		return
	}
	zlog.Warn().Err(err).Str("key", key).Str("value", value).Msg("ignoring environment producer")
}

// LoadDotEnv loads files (".env" when none are given) into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. environ is in
// os.Environ form; nil reads the process environment.
func ApplyEnv(cfg Config, environ []string) (Config, error) {
	if environ == nil {
		environ = os.Environ()
	}
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}

	var errs []error
	str := func(key string, dst *string) {
		if v, ok := env[key]; ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := env[key]; ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := env[key]; ok && v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}

	str(envTransportAddress, &cfg.IngressAddr)
	str(envPrefix+"INGRESS_ADDR", &cfg.IngressAddr)
	str(envPrefix+"CONTROL_ADDR", &cfg.ControlAddr)
	str(envPrefix+"ADMIN_ADDR", &cfg.AdminAddr)
	dur(envPrefix+"SEND_TIMEOUT", &cfg.SendTimeout)
	dur(envPrefix+"FORWARD_TIMEOUT", &cfg.ForwardTimeout)
	num(envPrefix+"MAX_CONNECTIONS", &cfg.MaxConnections)
	num(envPrefix+"MAX_LINE_BYTES", &cfg.MaxLineBytes)
	str(envPrefix+"LOG_LEVEL", &cfg.LogLevel)
	str(envPrefix+"LOG_FORMAT", &cfg.LogFormat)
	str(envPrefix+"NATS_URL", &cfg.NATSURL)
	str(envPrefix+"NATS_SUBJECT", &cfg.NATSSubject)
	if v := env[envPrefix+"CORS_ORIGINS"]; v != "" {
		cfg.CORSOrigins = SplitCSV(v)
	}

	// Sorted so the resulting producer order is stable. Entries that do not
	// name a usable address are skipped: PRODUCER_ is a common prefix and
	// unrelated variables must not stop startup.
	keys := make([]string, 0)
	for k := range env {
		if strings.HasPrefix(k, envProducerPrefix) && len(k) > len(envProducerPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		spec, err := producerFromEnv(strings.TrimPrefix(k, envProducerPrefix), env[k])
		if err != nil {
			warn(k, env[k], err)
			continue
		}
		cfg.Producers = upsert(cfg.Producers, spec)
	}
	return cfg, errors.Join(errs...)
}

// producerFromEnv maps NAME and "<uri> [events...]" to a Spec. A bare
// host:port means TCP. The URI must build a client.
func producerFromEnv(name, value string) (registry.Spec, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return registry.Spec{}, errors.New("empty producer uri")
	}
	uri := fields[0]
	if !strings.Contains(uri, "://") {
		uri = "tcp://" + uri
	}
	if _, err := client.FromURI(uri); err != nil {
		return registry.Spec{}, err
	}
	return registry.Spec{ID: producerID(name), URI: uri, Events: fields[1:]}, nil
}

// producerID lower-cases NAME, turns '_' into '-' and splits a trailing
// number off with '-': CONSUMER1 and CONSUMER_1 both become consumer-1.
func producerID(name string) string {
	id := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i > 0 && i < len(id) && id[i-1] != '-' {
		id = id[:i] + "-" + id[i:]
	}
	return id
}

func upsert(specs []registry.Spec, s registry.Spec) []registry.Spec {
	for i := range specs {
		if specs[i].ID == s.ID {
			specs[i] = s
			return specs
		}
	}
	return append(specs, s)
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
