// Package config loads the server configuration.
//
// Precedence, lowest first: built-in defaults, TOML file, UPDATE_SERVER_*
// environment variables, command-line flags (applied by cmd).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Catalog CatalogConfig `toml:"catalog"`
	Admin   AdminConfig   `toml:"admin"`
	Tasks   TasksConfig   `toml:"tasks"`
}

type ServerConfig struct {
	// Listen is the HTTP listen address, e.g. "0.0.0.0:3001".
	Listen string `toml:"listen"`
	Debug  bool   `toml:"debug"`
	// TrustedProxies may set X-Forwarded-For; empty means the peer address
	// is the client IP.
	TrustedProxies []string `toml:"trusted_proxies"`
}

type CatalogConfig struct {
	// Backend selects the catalog implementation: "memory" or "sqlite".
	// Both keep data in process memory only.
	Backend string `toml:"backend"`
	// SeedFile is an optional YAML file loaded at startup.
	SeedFile string `toml:"seed_file"`
	// BuiltinSeed loads the bundled first release when no seed file is given.
	BuiltinSeed bool `toml:"builtin_seed"`
}

type AdminConfig struct {
	Token       string `toml:"token"`
	TOTPSecret  string `toml:"totp_secret"`
	DisableAuth bool   `toml:"disable_auth"`

	MaxFailures   int      `toml:"max_failures"`
	FailureWindow Duration `toml:"failure_window"`
	Lockout       Duration `toml:"lockout"`
}

type TasksConfig struct {
	// ReportCron is a six-field cron spec (seconds first) or a descriptor such
	// as "@hourly" for the catalog summary log.
	// Empty disables the report.
	ReportCron string `toml:"report_cron"`
}

// Duration decodes TOML strings such as "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: "0.0.0.0:3001",
		},
		Catalog: CatalogConfig{
			Backend: BackendMemory,
		},
		Admin: AdminConfig{
			MaxFailures:   5,
			FailureWindow: Duration{15 * time.Minute},
			Lockout:       Duration{30 * time.Minute},
		},
		Tasks: TasksConfig{
			ReportCron: "0 0 * * * *",
		},
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	switch c.Catalog.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("catalog.backend must be %q or %q, got %q", BackendMemory, BackendSQLite, c.Catalog.Backend)
	}
	if c.Admin.MaxFailures < 0 {
		return fmt.Errorf("admin.max_failures must not be negative")
	}
	if c.Admin.MaxFailures > 0 && (c.Admin.FailureWindow.Duration <= 0 || c.Admin.Lockout.Duration <= 0) {
		return fmt.Errorf("admin.failure_window and admin.lockout must be positive when max_failures is set")
	}
	if c.Tasks.ReportCron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Tasks.ReportCron); err != nil {
			return fmt.Errorf("tasks.report_cron: %w", err)
		}
	}
	return nil
}
