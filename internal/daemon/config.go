// Package daemon wires the NestEgg service together: configuration, the
// portfolio database, and the HTTP API server lifecycle.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nestegg-app/nestegg/internal/reconcile"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Backend BackendConfig `toml:"backend"`
	Submit  SubmitConfig  `toml:"submit"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	DataDir string `toml:"data_dir"` // sqlite location; empty = ~/.nestegg
	Metrics bool   `toml:"metrics"`
}

// BackendConfig configures the API client used by the CLI.
type BackendConfig struct {
	URL        string `toml:"url"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// SubmitConfig configures the submission coordinator.
type SubmitConfig struct {
	Width      int   `toml:"width"`
	MaxRetries int   `toml:"max_retries"`
	BackoffMS  []int `toml:"backoff_ms"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	def := reconcile.DefaultConfig()
	backoff := make([]int, len(def.Backoff))
	for i, d := range def.Backoff {
		backoff[i] = int(d / time.Millisecond)
	}
	return Config{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    8418,
			Metrics: true,
		},
		Backend: BackendConfig{
			URL:        "http://127.0.0.1:8418",
			TimeoutSec: 30,
		},
		Submit: SubmitConfig{
			Width:      def.Width,
			MaxRetries: def.MaxRetries,
			BackoffMS:  backoff,
		},
	}
}

// LoadConfig reads the TOML file at path over the defaults. A missing file
// yields the defaults without error; a malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Addr returns the host:port the server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DataDirOrDefault resolves the data directory, creating it if needed.
func (c ServerConfig) DataDirOrDefault() (string, error) {
	dir := c.DataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".nestegg")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// SubmitPolicy converts the TOML submit table into the coordinator config.
func (c SubmitConfig) SubmitPolicy() reconcile.Config {
	backoff := make([]time.Duration, len(c.BackoffMS))
	for i, ms := range c.BackoffMS {
		backoff[i] = time.Duration(ms) * time.Millisecond
	}
	return reconcile.Config{
		Width:      c.Width,
		MaxRetries: c.MaxRetries,
		Backoff:    backoff,
	}
}

// Timeout returns the backend client timeout.
func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
