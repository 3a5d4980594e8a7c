// Package config holds the runner configuration: a YAML file for durable
// tuning with environment variables layered on top.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"signup-agent/internal/infrastructure/env"
)

// Config is everything tunable about a run.
type Config struct {
	MaxConcurrent     int           `yaml:"maxConcurrent"`
	MaxRetries        int           `yaml:"maxRetries"`
	JobTimeout        time.Duration `yaml:"jobTimeout"`
	HandshakeAttempts int           `yaml:"handshakeAttempts"`
	HandshakeInterval time.Duration `yaml:"handshakeInterval"`
	SubmitAfterFill   bool          `yaml:"submitAfterFill"`

	Headless  bool    `yaml:"headless"`
	Stealth   bool    `yaml:"stealth"`
	Threshold float64 `yaml:"threshold"`

	DBPath         string `yaml:"dbPath"`
	LogDir         string `yaml:"logDir"`
	DiagnosticsDir string `yaml:"diagnosticsDir"`
	Debug          bool   `yaml:"debug"`
}

// Default returns the canonical settings.
func Default() Config {
	return Config{
		MaxConcurrent:     1,
		MaxRetries:        2,
		JobTimeout:        30 * time.Second,
		HandshakeAttempts: 20,
		HandshakeInterval: 250 * time.Millisecond,
		Headless:          true,
		Stealth:           true,
		Threshold:         0.7,
		DBPath:            "signup-agent.db",
		LogDir:            "log",
		DiagnosticsDir:    "diagnostics",
	}
}

// Load reads the YAML file at path (when non-empty) over the defaults, then
// applies environment overrides. Env always wins.
func Load(path string, envSvc *env.Service) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envSvc != nil {
		cfg.MaxConcurrent = envSvc.GetInt("SIGNUP_MAX_CONCURRENT", cfg.MaxConcurrent)
		cfg.MaxRetries = envSvc.GetInt("SIGNUP_MAX_RETRIES", cfg.MaxRetries)
		cfg.JobTimeout = envSvc.GetDuration("SIGNUP_JOB_TIMEOUT", cfg.JobTimeout)
		cfg.SubmitAfterFill = envSvc.GetBool("SIGNUP_SUBMIT_AFTER_FILL", cfg.SubmitAfterFill)
		cfg.Headless = envSvc.GetBool("SIGNUP_HEADLESS", cfg.Headless)
		cfg.Stealth = envSvc.GetBool("SIGNUP_STEALTH", cfg.Stealth)
		cfg.DBPath = envSvc.Get("SIGNUP_DB_PATH", cfg.DBPath)
		cfg.Debug = envSvc.GetBool("SIGNUP_DEBUG", cfg.Debug)
	}

	return cfg, nil
}
