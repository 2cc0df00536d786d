// Package config provides configuration management for hydraimport.
//
// Config file locations (priority order):
//  1. $HYDRA_IMPORT_CONFIG
//  2. ./hydraimport.yaml
//  3. $XDG_CONFIG_HOME/hydraimport/config.yaml
//  4. ~/.config/hydraimport/config.yaml
//  5. /etc/hydraimport/config.yaml
//
// A .env file in the working directory is loaded first, and HYDRA_*
// variables override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	loadDotEnv(".env")

	path := FindConfigPath()

	if path == "" {
		// No config found - defaults plus environment
		cfg := DefaultConfig()
		if err := cfg.finish(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path. The decoder is chosen by
// file extension.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

func (c *Config) finish() error {
	c.applyDefaults()
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.URL == "" {
		c.Server.URL = "http://localhost:8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = Duration(60 * time.Second)
	}

	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.Interval == 0 {
		c.Breaker.Interval = Duration(30 * time.Second)
	}
	if c.Breaker.OpenTimeout == 0 {
		c.Breaker.OpenTimeout = Duration(30 * time.Second)
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 0.6
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 3
	}

	if c.Import.Projection == "" {
		c.Import.Projection = "EPSG:2229"
	}
	if c.Import.NetworkName == "" {
		c.Import.NetworkName = "Imported"
	}
	if c.Import.ProjectName == "" {
		c.Import.ProjectName = "Import Project"
	}
	if c.Import.Format == "" {
		c.Import.Format = "json"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "hydraimport"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "stderr"
	}

	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(500 * time.Millisecond)
	}

	if c.Database.Path == "" {
		c.Database.Path = "./hydraimport.db"
	}
	if c.Listen.Addr == "" {
		c.Listen.Addr = ":8080"
	}
	if c.Listen.AdminUser == "" {
		c.Listen.AdminUser = "root"
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	session := "login as " + c.Server.Username
	if c.Server.SessionID != "" {
		session = "existing session"
	}
	return fmt.Sprintf("Server: %s (%s), template: %d, project: %d, output: %s",
		c.Server.URL, session, c.Import.TemplateID, c.Import.ProjectID, c.Import.Format)
}
