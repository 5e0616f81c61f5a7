package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:3001", cfg.Server.Listen)
	assert.Equal(t, BackendMemory, cfg.Catalog.Backend)
	assert.Equal(t, 5, cfg.Admin.MaxFailures)
	assert.Equal(t, 30*time.Minute, cfg.Admin.Lockout.Duration)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("PORT", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
listen = "127.0.0.1:8080"
debug = true

[catalog]
backend = "sqlite"
seed_file = "/etc/update-server/seed.yaml"

[admin]
token = "file-token"
max_failures = 3
failure_window = "1m"
lockout = "10m"

[tasks]
report_cron = "@every 5m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, BackendSQLite, cfg.Catalog.Backend)
	assert.Equal(t, "/etc/update-server/seed.yaml", cfg.Catalog.SeedFile)
	assert.Equal(t, "file-token", cfg.Admin.Token)
	assert.Equal(t, 3, cfg.Admin.MaxFailures)
	assert.Equal(t, time.Minute, cfg.Admin.FailureWindow.Duration)
	assert.Equal(t, 10*time.Minute, cfg.Admin.Lockout.Duration)
	assert.Equal(t, "@every 5m", cfg.Tasks.ReportCron)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_InvalidBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[catalog]\nbackend = \"mysql\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.backend")
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	err := applyEnvOverrides(cfg, env(map[string]string{
		"UPDATE_SERVER_LISTEN":       ":9000",
		"UPDATE_SERVER_ADMIN_TOKEN":  "env-token",
		"UPDATE_SERVER_DISABLE_AUTH": "true",
		"UPDATE_SERVER_LOCKOUT":      "2h",
		"UPDATE_SERVER_MAX_FAILURES": "0",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.Equal(t, "env-token", cfg.Admin.Token)
	assert.True(t, cfg.Admin.DisableAuth)
	assert.Equal(t, 2*time.Hour, cfg.Admin.Lockout.Duration)
	assert.Equal(t, 0, cfg.Admin.MaxFailures)
}

func TestApplyEnvOverrides_LegacyVariables(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, applyEnvOverrides(cfg, env(map[string]string{
		"PORT":        "4000",
		"ADMIN_TOKEN": "legacy",
	})))
	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Listen)
	assert.Equal(t, "legacy", cfg.Admin.Token)

	cfg = DefaultConfig()
	require.NoError(t, applyEnvOverrides(cfg, env(map[string]string{
		"PORT":                 "4000",
		"UPDATE_SERVER_LISTEN": "127.0.0.1:5000",
	})))
	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Listen)
}

func TestApplyEnvOverrides_BadValue(t *testing.T) {
	cfg := DefaultConfig()
	err := applyEnvOverrides(cfg, env(map[string]string{"UPDATE_SERVER_DEBUG": "maybe"}))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen", func(c *Config) { c.Server.Listen = " " }},
		{"negative failures", func(c *Config) { c.Admin.MaxFailures = -1 }},
		{"zero lockout", func(c *Config) { c.Admin.Lockout.Duration = 0 }},
		{"bad cron", func(c *Config) { c.Tasks.ReportCron = "every hour" }},
		{"five field cron", func(c *Config) { c.Tasks.ReportCron = "0 * * * *" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Admin.MaxFailures = 0
	cfg.Admin.Lockout.Duration = 0
	cfg.Tasks.ReportCron = ""
	assert.NoError(t, cfg.Validate())
}
