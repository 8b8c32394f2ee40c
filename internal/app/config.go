package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // .hcl, .yaml or .yml build file

	LogFormat    string
	LogLevel     string
	StatusPort   int
	Workers      int
	HookTimeout  time.Duration
	StageTimeout time.Duration
	KeepGoing    bool

	// Env is exposed to the build file as the `env` variable.
	Env map[string]string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.ConfigPath == "" {
		errs = append(errs, errors.New("ConfigPath is a required configuration field and cannot be empty"))
	}
	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers))
	}
	if cfg.HookTimeout < 0 {
		errs = append(errs, fmt.Errorf("hook timeout must not be negative, got %s", cfg.HookTimeout))
	}
	if cfg.StageTimeout < 0 {
		errs = append(errs, fmt.Errorf("stage timeout must not be negative, got %s", cfg.StageTimeout))
	}
	if cfg.StatusPort < 0 || cfg.StatusPort > 65535 {
		errs = append(errs, fmt.Errorf("status port %d is out of range", cfg.StatusPort))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if cfg.Env == nil {
		cfg.Env = map[string]string{}
	}
	return &cfg, nil
}
