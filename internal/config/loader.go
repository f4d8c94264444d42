// Package config loads relayd settings from a file and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"relayd/internal/common/fsutil"
	"relayd/internal/registry"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	IngressAddr string `json:"ingress_addr" yaml:"ingress_addr" toml:"ingress_addr"`
	ControlAddr string `json:"control_addr" yaml:"control_addr" toml:"control_addr"`
	// AdminAddr serves the admin HTTP API; "off" disables it.
	AdminAddr string `json:"admin_addr" yaml:"admin_addr" toml:"admin_addr"`

	SendTimeout    Duration `json:"send_timeout" yaml:"send_timeout" toml:"send_timeout"`
	ForwardTimeout Duration `json:"forward_timeout" yaml:"forward_timeout" toml:"forward_timeout"`
	MaxConnections int      `json:"max_connections" yaml:"max_connections" toml:"max_connections"`
	MaxLineBytes   int      `json:"max_line_bytes" yaml:"max_line_bytes" toml:"max_line_bytes"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	NATSURL     string   `json:"nats_url" yaml:"nats_url" toml:"nats_url"`
	NATSSubject string   `json:"nats_subject" yaml:"nats_subject" toml:"nats_subject"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	Producers []registry.Spec `json:"producers" yaml:"producers" toml:"producers"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// SearchPaths are tried in order by Discover.
var SearchPaths = []string{
	"relayd.yaml",
	"relayd.yml",
	"relayd.toml",
	"relayd.json",
	"~/.config/relayd/relayd.yaml",
}

// Discover returns the first config file found in SearchPaths.
func Discover() (string, bool) {
	return fsutil.FirstExisting(SearchPaths...)
}
