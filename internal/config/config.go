// Package config handles configuration loading and validation for prfeed.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Sweep SweepConfig `yaml:"sweep"`
	Log   LogConfig   `yaml:"log"`
}

// HTTPConfig configures the HTTP listener and event streams.
type HTTPConfig struct {
	Addr       string        `yaml:"addr"`
	Heartbeat  time.Duration `yaml:"heartbeat"`   // keepalive comment interval on streams
	Retry      time.Duration `yaml:"retry"`       // reconnect delay suggested to clients
	OutboxSize int           `yaml:"outbox_size"` // queued events per stream before sends fail
}

// SweepConfig configures the periodic removal of dead clients.
type SweepConfig struct {
	Interval    time.Duration `yaml:"interval"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:       ":8080",
			Heartbeat:  25 * time.Second,
			Retry:      3 * time.Second,
			OutboxSize: 16,
		},
		Sweep: SweepConfig{
			Interval:    30 * time.Second,
			IdleTimeout: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path on top of the defaults. A missing or
// empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := Default()
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = defaults.HTTP.Addr
	}
	if c.HTTP.Retry == 0 {
		c.HTTP.Retry = defaults.HTTP.Retry
	}
	if c.HTTP.OutboxSize == 0 {
		c.HTTP.OutboxSize = defaults.HTTP.OutboxSize
	}
	if c.Sweep.Interval == 0 {
		c.Sweep.Interval = defaults.Sweep.Interval
	}
	if c.Sweep.IdleTimeout == 0 {
		c.Sweep.IdleTimeout = defaults.Sweep.IdleTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.HTTP.Heartbeat < 0 {
		return fmt.Errorf("http.heartbeat cannot be negative")
	}
	if c.HTTP.Retry < 0 {
		return fmt.Errorf("http.retry cannot be negative")
	}
	if c.HTTP.OutboxSize < 1 {
		return fmt.Errorf("http.outbox_size must be at least 1")
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive")
	}
	if c.Sweep.IdleTimeout <= 0 {
		return fmt.Errorf("sweep.idle_timeout must be positive")
	}
	if c.Sweep.IdleTimeout < c.Sweep.Interval {
		return fmt.Errorf("sweep.idle_timeout (%s) must not be shorter than sweep.interval (%s)",
			c.Sweep.IdleTimeout, c.Sweep.Interval)
	}
	return nil
}

// YAML renders the configuration as it would appear in a config file.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
