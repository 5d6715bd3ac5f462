package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the modelrun server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json

	// DatabaseURL selects the storage backend: a postgres:// URL uses
	// PostgreSQL, anything else is treated as a SQLite file path
	// (":memory:" for testing). Empty defaults to ~/.modelrun/modelrun.db.
	DatabaseURL string `yaml:"database_url"`

	// StepDelay is the pause inserted after each run status transition to
	// simulate work duration.
	StepDelay time.Duration `yaml:"step_delay"`

	// MaxConcurrentRuns bounds the number of run tasks executing at once.
	// Zero means unlimited.
	MaxConcurrentRuns int `yaml:"max_concurrent_runs"`

	YieldDataPath     string `yaml:"yield_data_path"`
	WaterRiskDataPath string `yaml:"water_risk_data_path"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":8080",
		LogLevel:          "info",
		LogFormat:         "text",
		StepDelay:         3 * time.Second,
		YieldDataPath:     "data/yield_data.csv",
		WaterRiskDataPath: "data/water_risk_data.csv",
	}
}

// LoadFile reads a YAML config file over the given base config.
// Fields absent from the file keep their base values.
func LoadFile(path string, base ServerConfig) (ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the config.
//
//	MODELRUN_ADDR, MODELRUN_LOG_LEVEL, MODELRUN_LOG_FORMAT
//	DATABASE_URL
//	MODELRUN_STEP_DELAY (Go duration, e.g. "3s", "250ms")
//	MODELRUN_MAX_CONCURRENT_RUNS
//	MODELRUN_YIELD_DATA, MODELRUN_WATER_RISK_DATA
func ApplyEnv(cfg ServerConfig) (ServerConfig, error) {
	if v := os.Getenv("MODELRUN_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("MODELRUN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MODELRUN_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("MODELRUN_STEP_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("parse MODELRUN_STEP_DELAY: %w", err)
		}
		cfg.StepDelay = d
	}
	if v := os.Getenv("MODELRUN_MAX_CONCURRENT_RUNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("parse MODELRUN_MAX_CONCURRENT_RUNS: %w", err)
		}
		cfg.MaxConcurrentRuns = n
	}
	if v := os.Getenv("MODELRUN_YIELD_DATA"); v != "" {
		cfg.YieldDataPath = v
	}
	if v := os.Getenv("MODELRUN_WATER_RISK_DATA"); v != "" {
		cfg.WaterRiskDataPath = v
	}
	return cfg, nil
}

// Validate checks the config for values the server cannot start with.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.StepDelay < 0 {
		return errors.New("step_delay must be >= 0")
	}
	if c.MaxConcurrentRuns < 0 {
		return errors.New("max_concurrent_runs must be >= 0")
	}
	if c.YieldDataPath == "" || c.WaterRiskDataPath == "" {
		return errors.New("dataset paths are required")
	}
	return nil
}
