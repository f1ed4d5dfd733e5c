package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // .hcl, .yaml and .yml agent files

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	RedisURL string
	RedisKey string

	OTelEndpoint string
	OTelInsecure bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("WorkerCount must not be negative, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("HealthcheckPort must be between 0 and 65535, got %d", cfg.HealthcheckPort)
	}
	if cfg.RedisKey != "" && cfg.RedisURL == "" {
		return nil, errors.New("RedisKey requires RedisURL")
	}
	return &cfg, nil
}
