// Package config loads supervisor configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Oracle struct {
		APIKey     string `yaml:"api_key"`
		BaseURL    string `yaml:"base_url"`
		Model      string `yaml:"model"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"oracle"`
	AccountStream struct {
		URL         string `yaml:"url"`
		MaxStaleSec int    `yaml:"max_stale_sec"`
	} `yaml:"account_stream"`
	Database struct {
		PostgresDSN   string `yaml:"postgres_dsn"`
		ClickHouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"database"`
	Schedule struct {
		CycleCron  string `yaml:"cycle_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("ORACLE_MODEL"); v != "" {
		cfg.Oracle.Model = v
	}
	if v := os.Getenv("ACCOUNT_STREAM_URL"); v != "" {
		cfg.AccountStream.URL = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Database.ClickHouseDSN = v
	}
	if v := os.Getenv("CYCLE_CRON"); v != "" {
		cfg.Schedule.CycleCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Schedule.RunOnStart = b
		}
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Defaults
	if cfg.Oracle.TimeoutSec == 0 {
		cfg.Oracle.TimeoutSec = 30
	}
	if cfg.AccountStream.MaxStaleSec == 0 {
		cfg.AccountStream.MaxStaleSec = 120
	}
	if cfg.Schedule.CycleCron == "" {
		cfg.Schedule.CycleCron = "0 */15 * * * *"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Oracle.APIKey == "" {
		return fmt.Errorf("oracle.api_key is required")
	}
	if c.AccountStream.URL == "" {
		return fmt.Errorf("account_stream.url is required")
	}
	if c.Oracle.TimeoutSec <= 0 {
		return fmt.Errorf("oracle.timeout_sec must be positive")
	}
	return nil
}

// OracleTimeout returns the oracle call timeout as a duration.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.Oracle.TimeoutSec) * time.Second
}

// MaxStale returns the account snapshot staleness bound as a duration.
func (c *Config) MaxStale() time.Duration {
	return time.Duration(c.AccountStream.MaxStaleSec) * time.Second
}
