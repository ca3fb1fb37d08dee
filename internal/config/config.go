// Package config loads application settings from defaults, an optional TOML
// file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/abhisek/prepzone/internal/validator"
)

// Config holds all application configuration.
type Config struct {
	Exam     ExamConfig     `toml:"exam"`
	Security SecurityConfig `toml:"security"`
	Log      LogConfig      `toml:"log"`
	Store    StoreConfig    `toml:"store"`
}

// ExamConfig selects and configures the exam service.
type ExamConfig struct {
	// Mode is "mock" (offline packs) or "live" (platform API).
	Mode    string   `toml:"mode" validate:"oneof=mock live"`
	BaseURL string   `toml:"base_url" validate:"omitempty,url"`
	Token   string   `toml:"token"`
	PackDir string   `toml:"pack_dir"`
	Timeout Duration `toml:"timeout"`
	Retry   Retry    `toml:"retry"`
}

// Retry configures backoff for transient service failures.
type Retry struct {
	MaxAttempts int      `toml:"max_attempts" validate:"min=1,max=10"`
	InitialWait Duration `toml:"initial_wait"`
	MaxWait     Duration `toml:"max_wait"`
	Multiplier  float64  `toml:"multiplier" validate:"gte=1"`
}

// SecurityConfig tunes the attempt security monitor.
type SecurityConfig struct {
	MaxWarnings int  `toml:"max_warnings" validate:"min=1"`
	Screenshots bool `toml:"screenshot_signal"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `toml:"format" validate:"oneof=json pretty"`
	File   string `toml:"file"`
}

// StoreConfig locates the local history database.
type StoreConfig struct {
	DBPath string `toml:"db_path"`
}

// Duration is a time.Duration decoded from strings like "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Exam: ExamConfig{
			Mode:    "mock",
			PackDir: DefaultPackDir(),
			Timeout: Duration{15 * time.Second},
			Retry: Retry{
				MaxAttempts: 3,
				InitialWait: Duration{500 * time.Millisecond},
				MaxWait:     Duration{5 * time.Second},
				Multiplier:  2.0,
			},
		},
		Security: SecurityConfig{
			MaxWarnings: 1,
			Screenshots: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			File:   DefaultLogPath(),
		},
	}
}

// Load builds the configuration. path names the TOML file; an empty path
// uses DefaultConfigPath. A missing file is not an error. A .env file in
// the working directory is loaded if present, and PREPZONE_* variables
// override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}

	_ = godotenv.Load() // .env is optional
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return validator.Error(err)
	}
	switch {
	case c.Exam.Mode == "live" && c.Exam.BaseURL == "":
		return fmt.Errorf("invalid configuration: base_url is required in live mode")
	case c.Exam.Timeout.Duration <= 0:
		return fmt.Errorf("invalid configuration: timeout must be positive")
	case c.Exam.Retry.InitialWait.Duration < 0 || c.Exam.Retry.MaxWait.Duration < 0:
		return fmt.Errorf("invalid configuration: retry waits must not be negative")
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat config: %w", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Exam.Mode = getEnv("PREPZONE_MODE", cfg.Exam.Mode)
	cfg.Exam.BaseURL = getEnv("PREPZONE_BASE_URL", cfg.Exam.BaseURL)
	cfg.Exam.Token = getEnv("PREPZONE_TOKEN", cfg.Exam.Token)
	cfg.Exam.PackDir = getEnv("PREPZONE_PACK_DIR", cfg.Exam.PackDir)
	cfg.Security.MaxWarnings = getEnvInt("PREPZONE_MAX_WARNINGS", cfg.Security.MaxWarnings)
	cfg.Log.Level = strings.ToLower(getEnv("PREPZONE_LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = getEnv("PREPZONE_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("PREPZONE_LOG_FILE", cfg.Log.File)
	cfg.Store.DBPath = getEnv("PREPZONE_DB", cfg.Store.DBPath)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
