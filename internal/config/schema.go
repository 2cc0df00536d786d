package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version" toml:"version"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Breaker  BreakerConfig  `yaml:"breaker" toml:"breaker"`
	Import   ImportConfig   `yaml:"import" toml:"import"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" toml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing" toml:"tracing"`
	Watch    WatchConfig    `yaml:"watch" toml:"watch"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Listen   ListenConfig   `yaml:"listen" toml:"listen"`
}

// ServerConfig locates the persistence service
type ServerConfig struct {
	URL       string   `yaml:"url" toml:"url" validate:"required,url"`
	SessionID string   `yaml:"session_id,omitempty" toml:"session_id"`
	Username  string   `yaml:"username,omitempty" toml:"username"`
	Password  string   `yaml:"password,omitempty" toml:"password"`
	Timeout   Duration `yaml:"timeout" toml:"timeout"`
}

// BreakerConfig tunes the circuit breaker around service calls
type BreakerConfig struct {
	MaxRequests      uint32   `yaml:"max_requests" toml:"max_requests"`
	Interval         Duration `yaml:"interval" toml:"interval"`
	OpenTimeout      Duration `yaml:"open_timeout" toml:"open_timeout"`
	FailureThreshold float64  `yaml:"failure_threshold" toml:"failure_threshold" validate:"gte=0,lte=1"`
	MinRequests      uint32   `yaml:"min_requests" toml:"min_requests"`
}

// ImportConfig holds defaults for the import command
type ImportConfig struct {
	TemplateID  int64  `yaml:"template_id,omitempty" toml:"template_id" validate:"gte=0"`
	ProjectID   int64  `yaml:"project_id,omitempty" toml:"project_id" validate:"gte=0"`
	StrictNames bool   `yaml:"strict_names" toml:"strict_names"`
	Projection  string `yaml:"projection" toml:"projection"`
	NetworkName string `yaml:"network_name" toml:"network_name"`
	ProjectName string `yaml:"project_name" toml:"project_name"`
	OutputDir   string `yaml:"output_dir,omitempty" toml:"output_dir"`
	Format      string `yaml:"format" toml:"format" validate:"oneof=json yaml"`
}

// LoggingConfig selects log level and encoding
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"oneof=json console"`
}

// MetricsConfig controls the Prometheus textfile output
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path,omitempty" toml:"textfile_path"`
}

// TracingConfig controls OpenTelemetry tracing
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	ServiceName string `yaml:"service_name" toml:"service_name"`
	Exporter    string `yaml:"exporter" toml:"exporter" validate:"oneof=stdout stderr"`
}

// WatchConfig tunes watch mode
type WatchConfig struct {
	Debounce Duration `yaml:"debounce" toml:"debounce"`
}

// DatabaseConfig holds database settings for the local server
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// ListenConfig holds settings for the local server
type ListenConfig struct {
	Addr         string `yaml:"addr" toml:"addr"`
	TemplateSeed string `yaml:"template_seed,omitempty" toml:"template_seed"`
	AdminUser    string `yaml:"admin_user" toml:"admin_user"`
	AdminPass    string `yaml:"admin_password,omitempty" toml:"admin_password"`
}

// Duration wraps time.Duration for YAML and TOML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
