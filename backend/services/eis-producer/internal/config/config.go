package config

import (
	"errors"
	"strings"
	"time"

	libconfig "batteryeis/backend/libs/config"
)

// Config defines producer configuration.
type Config struct {
	Ingest struct {
		URL            string `yaml:"url" env:"PRODUCER_INGEST_URL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"PRODUCER_TIMEOUT"`
	} `yaml:"ingest"`
	Source struct {
		Dir string `yaml:"dir" env:"PRODUCER_DIR"`
	} `yaml:"source"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.Ingest.URL = "http://localhost:8085"
	cfg.Ingest.TimeoutSeconds = 10
	cfg.Source.Dir = "./Hioki"

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Ingest.URL) == "" {
		return nil, errors.New("config: ingest url required")
	}
	if strings.TrimSpace(cfg.Source.Dir) == "" {
		return nil, errors.New("config: source dir required")
	}
	return cfg, nil
}

// Timeout returns per-request timeout.
func (c *Config) Timeout() time.Duration {
	if c.Ingest.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Ingest.TimeoutSeconds) * time.Second
}
