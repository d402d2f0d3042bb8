// Package config loads hivewatch settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/selemilka/hivewatch/internal/reconcile"
	"github.com/selemilka/hivewatch/internal/retry"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Reconcile tunes the reconcilers and the retry driver.
type Reconcile struct {
	MaxCount         int           `yaml:"max_count"`          // drift samples kept per process
	RetentionWindow  time.Duration `yaml:"retention_window"`   // e.g. "60s"
	RetryDelay       time.Duration `yaml:"retry_delay"`        // constant wait between attempts
	MaxRetryAttempts int           `yaml:"max_retry_attempts"` // 0 retries forever
}

// Window returns the metrics retention window.
func (r Reconcile) Window() reconcile.Window {
	return reconcile.Window{MaxCount: r.MaxCount, Retention: r.RetentionWindow}
}

// Config holds everything cmd/hivewatch needs.
type Config struct {
	NodeName string `yaml:"node_name"`

	// Backend is the dashboard gRPC address, e.g. "localhost:9000".
	Backend       string `yaml:"backend"`
	StatusFilter  string `yaml:"status_filter"`  // empty selects every process
	MetricsFilter string `yaml:"metrics_filter"` // empty selects every process

	HTTPListenAddr string `yaml:"http_listen_addr"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	TraceDir string `yaml:"trace_dir"` // empty disables tracing

	Reconcile Reconcile `yaml:"reconcile"`
}

// DefaultConfig returns defaults for a local backend.
func DefaultConfig() Config {
	return Config{
		NodeName:       "local",
		Backend:        "localhost:9000",
		HTTPListenAddr: "127.0.0.1:8081",
		LogLevel:       "info",
		Reconcile: Reconcile{
			MaxCount:        100,
			RetentionWindow: 60 * time.Second,
			RetryDelay:      retry.DefaultDelay,
		},
	}
}

// Load reads a YAML config on top of DefaultConfig. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Backend == "":
		return fmt.Errorf("%w: backend is required", ErrInvalid)
	case c.Reconcile.MaxCount <= 0:
		return fmt.Errorf("%w: reconcile.max_count must be positive, got %d", ErrInvalid, c.Reconcile.MaxCount)
	case c.Reconcile.RetentionWindow <= 0:
		return fmt.Errorf("%w: reconcile.retention_window must be positive, got %s", ErrInvalid, c.Reconcile.RetentionWindow)
	case c.Reconcile.RetryDelay < 0:
		return fmt.Errorf("%w: reconcile.retry_delay must not be negative, got %s", ErrInvalid, c.Reconcile.RetryDelay)
	case c.Reconcile.MaxRetryAttempts < 0:
		return fmt.Errorf("%w: reconcile.max_retry_attempts must not be negative, got %d", ErrInvalid, c.Reconcile.MaxRetryAttempts)
	}
	return nil
}
