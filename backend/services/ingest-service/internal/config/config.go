package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "batteryeis/backend/libs/config"
	"batteryeis/backend/services/ingest-service/internal/thresholds"
)

const (
	defaultPort     = "8085"
	defaultDataDir  = "./Data"
	defaultRedisTTL = 24 * time.Hour
)

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"INGEST_HTTP_PORT"`
}

// StorageConfig holds the CSV data root.
type StorageConfig struct {
	DataDir string `yaml:"dataDir" env:"INGEST_DATA_DIR"`
}

// DatabaseConfig enables the session journal when DSN is set.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"INGEST_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"INGEST_POSTGRES_MAX_OPEN"`
}

// RedisConfig enables the active session mirror when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"INGEST_REDIS_ADDR"`
	Password string `yaml:"password" env:"INGEST_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"INGEST_REDIS_DB"`
	TTL      int    `yaml:"ttlSeconds" env:"INGEST_REDIS_TTL"`
}

// WebSocketConfig tunes /ingest/ws.
type WebSocketConfig struct {
	PingIntervalSeconds int `yaml:"pingIntervalSeconds" env:"INGEST_WS_PING_INTERVAL"`
	WriteTimeoutSeconds int `yaml:"writeTimeoutSeconds" env:"INGEST_WS_WRITE_TIMEOUT"`
}

// Config defines ingest service configuration.
type Config struct {
	HTTP       HTTPConfig      `yaml:"http"`
	Storage    StorageConfig   `yaml:"storage"`
	Database   DatabaseConfig  `yaml:"database"`
	Redis      RedisConfig     `yaml:"redis"`
	WebSocket  WebSocketConfig `yaml:"websocket"`
	Thresholds thresholds.Raw  `yaml:"thresholds"`

	bounds thresholds.Config
}

var thresholdKeys = map[string]string{
	"INGEST_THRESHOLD_DELTA_T": "temperatureDelta",
	"INGEST_R_MIN":             "resistanceMin",
	"INGEST_R_MAX":             "resistanceMax",
	"INGEST_RANGE_MIN":         "rangeMin",
	"INGEST_RANGE_MAX":         "rangeMax",
}

// Load reads configuration via shared helper and validates threshold bounds.
// Threshold problems are reported as *thresholds.ConfigurationError.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:    HTTPConfig{Port: defaultPort},
		Storage: StorageConfig{DataDir: defaultDataDir},
		WebSocket: WebSocketConfig{
			PingIntervalSeconds: 30,
			WriteTimeoutSeconds: 15,
		},
	}

	if err := libconfig.LoadConfig(cfg); err != nil {
		var fieldErr *libconfig.FieldError
		if errors.As(err, &fieldErr) {
			if field, ok := thresholdKeys[fieldErr.Key]; ok {
				return nil, &thresholds.ConfigurationError{Field: field, Reason: "not a number", Err: fieldErr.Err}
			}
		}
		return nil, err
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return errors.New("config: storage data dir required")
	}
	bounds, err := thresholds.New(c.Thresholds)
	if err != nil {
		return err
	}
	c.bounds = bounds
	return nil
}

// Bounds returns validated thresholds.
func (c *Config) Bounds() thresholds.Config {
	return c.bounds
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JournalEnabled reports whether a postgres DSN was configured.
func (c *Config) JournalEnabled() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}

// ActiveStoreEnabled reports whether a redis address was configured.
func (c *Config) ActiveStoreEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// ActiveSessionTTL returns ttl as duration.
func (c *Config) ActiveSessionTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return defaultRedisTTL
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// PingInterval returns websocket ping interval.
func (c *Config) PingInterval() time.Duration {
	if c.WebSocket.PingIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.WebSocket.PingIntervalSeconds) * time.Second
}

// WriteTimeout returns websocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	if c.WebSocket.WriteTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.WebSocket.WriteTimeoutSeconds) * time.Second
}
