package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override file values
const (
	EnvServerURL   = "HYDRA_SERVER_URL"
	EnvSessionID   = "HYDRA_SESSION_ID"
	EnvUsername    = "HYDRA_USERNAME"
	EnvPassword    = "HYDRA_PASSWORD"
	EnvTemplateID  = "HYDRA_TEMPLATE_ID"
	EnvProjectID   = "HYDRA_PROJECT_ID"
	EnvStrictNames = "HYDRA_STRICT_NAMES"
	EnvOutputDir   = "HYDRA_OUTPUT_DIR"
	EnvLogLevel    = "HYDRA_LOG_LEVEL"
	EnvLogFormat   = "HYDRA_LOG_FORMAT"
	EnvTimeout     = "HYDRA_TIMEOUT"
	EnvDBPath      = "HYDRA_DB_PATH"
	EnvListenAddr  = "HYDRA_LISTEN_ADDR"
	EnvAdminPass   = "HYDRA_ADMIN_PASSWORD"
)

// loadDotEnv loads path into the process environment. Variables that are
// already set win, and a missing file is not an error.
func loadDotEnv(path string) {
	if fileExists(path) {
		_ = godotenv.Load(path)
	}
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvServerURL, &c.Server.URL)
	str(EnvSessionID, &c.Server.SessionID)
	str(EnvUsername, &c.Server.Username)
	str(EnvPassword, &c.Server.Password)
	str(EnvOutputDir, &c.Import.OutputDir)
	str(EnvLogLevel, &c.Logging.Level)
	str(EnvLogFormat, &c.Logging.Format)
	str(EnvDBPath, &c.Database.Path)
	str(EnvListenAddr, &c.Listen.Addr)
	str(EnvAdminPass, &c.Listen.AdminPass)

	ints := []struct {
		key string
		dst *int64
	}{
		{EnvTemplateID, &c.Import.TemplateID},
		{EnvProjectID, &c.Import.ProjectID},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v, ok := lookup(EnvStrictNames); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrictNames, err)
		}
		c.Import.StrictNames = b
	}

	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Server.Timeout = Duration(d)
	}

	return nil
}
