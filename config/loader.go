package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const envPrefix = "UPDATE_SERVER_"

// Load reads path (if non-empty) on top of the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
		return nil
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
		return nil
	}
	duration := func(key string, dst *Duration) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		dst.Duration = d
		return nil
	}

	str("LISTEN", &cfg.Server.Listen)
	// PORT 兼容旧部署脚本
	if port, ok := lookup("PORT"); ok && strings.TrimSpace(port) != "" {
		if _, set := lookup(envPrefix + "LISTEN"); !set {
			cfg.Server.Listen = "0.0.0.0:" + strings.TrimSpace(port)
		}
	}
	str("CATALOG_BACKEND", &cfg.Catalog.Backend)
	str("SEED_FILE", &cfg.Catalog.SeedFile)
	str("ADMIN_TOKEN", &cfg.Admin.Token)
	if v, ok := lookup("ADMIN_TOKEN"); ok && cfg.Admin.Token == "" {
		cfg.Admin.Token = strings.TrimSpace(v)
	}
	str("TOTP_SECRET", &cfg.Admin.TOTPSecret)
	str("REPORT_CRON", &cfg.Tasks.ReportCron)

	for _, err := range []error{
		boolean("DEBUG", &cfg.Server.Debug),
		boolean("BUILTIN_SEED", &cfg.Catalog.BuiltinSeed),
		boolean("DISABLE_AUTH", &cfg.Admin.DisableAuth),
		integer("MAX_FAILURES", &cfg.Admin.MaxFailures),
		duration("FAILURE_WINDOW", &cfg.Admin.FailureWindow),
		duration("LOCKOUT", &cfg.Admin.Lockout),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
