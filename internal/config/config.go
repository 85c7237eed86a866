// Package config loads the gotensor server configuration from the
// environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Engine  EngineConfig
	Logging LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// EngineConfig holds expansion engine limits.
type EngineConfig struct {
	MaxPasses    int `envconfig:"GOTENSOR_MAX_PASSES" default:"1000"`
	BatchWorkers int `envconfig:"GOTENSOR_BATCH_WORKERS" default:"4"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string { return s.Host + ":" + s.Port }

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Engine.MaxPasses < 1 {
		return nil, fmt.Errorf("GOTENSOR_MAX_PASSES must be positive, got %d", cfg.Engine.MaxPasses)
	}
	if cfg.Engine.BatchWorkers < 1 {
		return nil, fmt.Errorf("GOTENSOR_BATCH_WORKERS must be positive, got %d", cfg.Engine.BatchWorkers)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Engine: EngineConfig{
			MaxPasses:    1000,
			BatchWorkers: 4,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}
