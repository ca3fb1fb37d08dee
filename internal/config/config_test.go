package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, key := range []string{
		"PREPZONE_MODE", "PREPZONE_BASE_URL", "PREPZONE_TOKEN", "PREPZONE_PACK_DIR",
		"PREPZONE_MAX_WARNINGS", "PREPZONE_LOG_LEVEL", "PREPZONE_LOG_FORMAT",
		"PREPZONE_LOG_FILE", "PREPZONE_DB",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Exam.Mode)
	assert.Equal(t, 1, cfg.Security.MaxWarnings)
	assert.Equal(t, 15*time.Second, cfg.Exam.Timeout.Duration)
	assert.Equal(t, filepath.Join(dir, "state", "prepzone", "prepzone.log"), cfg.Log.File)
	assert.Equal(t, filepath.Join(dir, "data", "prepzone", "packs"), cfg.Exam.PackDir)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, `
[exam]
mode = "live"
base_url = "https://api.example.com"
timeout = "30s"

[exam.retry]
max_attempts = 5
initial_wait = "1s"

[security]
max_warnings = 3

[log]
level = "debug"
format = "pretty"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "live", cfg.Exam.Mode)
	assert.Equal(t, "https://api.example.com", cfg.Exam.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Exam.Timeout.Duration)
	assert.Equal(t, 5, cfg.Exam.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Exam.Retry.InitialWait.Duration)
	assert.Equal(t, 5*time.Second, cfg.Exam.Retry.MaxWait.Duration, "unset keys keep defaults")
	assert.Equal(t, 3, cfg.Security.MaxWarnings)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "pretty", cfg.Log.Format)
}

func TestLoad_DefaultPathIsRead(t *testing.T) {
	isolate(t)
	writeFile(t, DefaultConfigPath(), "[security]\nmax_warnings = 2\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Security.MaxWarnings)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "c.toml")
	writeFile(t, path, "[security]\nmax_warnings = 2\n[log]\nlevel = \"warn\"\n")

	t.Setenv("PREPZONE_MAX_WARNINGS", "4")
	t.Setenv("PREPZONE_LOG_LEVEL", "ERROR")
	t.Setenv("PREPZONE_DB", "/tmp/x.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Security.MaxWarnings)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "/tmp/x.db", cfg.Store.DBPath)
}

func TestLoad_BadEnvIntIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("PREPZONE_MAX_WARNINGS", "many")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Security.MaxWarnings)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown mode", "[exam]\nmode = \"remote\"\n", "mode"},
		{"live without url", "[exam]\nmode = \"live\"\n", "base_url is required"},
		{"zero warnings", "[security]\nmax_warnings = 0\n", "max_warnings"},
		{"bad format", "[log]\nformat = \"xml\"\n", "format"},
		{"bad duration", "[exam]\ntimeout = \"soon\"\n", "parse duration"},
		{"zero timeout", "[exam]\ntimeout = \"0s\"\n", "timeout must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "c.toml")
			writeFile(t, path, tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
