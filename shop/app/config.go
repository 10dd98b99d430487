package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/nstonic/Fish-bot/core/config"
	coredatabase "github.com/nstonic/Fish-bot/core/database"
	"github.com/nstonic/Fish-bot/shop/storage/redisstore"
)

// Storage drivers.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// CommerceConfig configures the Moltin client.
type CommerceConfig struct {
	BaseURL            string `yaml:"base_url" envconfig:"MOLTIN_BASE_URL"`
	ClientID           string `yaml:"client_id" envconfig:"MOLTIN_CLIENT_ID"`
	ClientSecret       string `yaml:"client_secret" envconfig:"MOLTIN_CLIENT_SECRET"`
	PriceBookID        string `yaml:"pricebook_id" envconfig:"MOLTIN_PRICEBOOK_ID"`
	Currency           string `yaml:"currency" envconfig:"MOLTIN_CURRENCY"`
	TimeoutSeconds     int    `yaml:"timeout_seconds" envconfig:"MOLTIN_TIMEOUT_SECONDS"`
	Retries            int    `yaml:"retries" envconfig:"MOLTIN_RETRIES"`
	TokenMarginSeconds int    `yaml:"token_margin_seconds" envconfig:"MOLTIN_TOKEN_MARGIN_SECONDS"`
}

// Timeout returns the per-request HTTP timeout.
func (c CommerceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StorageConfig selects the session store backend.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Commerce CommerceConfig      `yaml:"commerce"`
	Storage  StorageConfig       `yaml:"storage"`
	Redis    redisstore.Config   `yaml:"redis"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the shared core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Load reads the YAML file, applies .env and environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	c := &cfg.Commerce
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("commerce.client_id and commerce.client_secret are required")
	}
	if strings.TrimSpace(c.PriceBookID) == "" {
		return fmt.Errorf("commerce.pricebook_id is required")
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.TokenMarginSeconds < 300 {
		c.TokenMarginSeconds = 300
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = DriverRedis
	}
	switch driver {
	case DriverRedis:
		if strings.TrimSpace(cfg.Redis.URL) == "" {
			return fmt.Errorf("redis.url is required when storage.driver is 'redis'")
		}
	case DriverPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required when storage.driver is 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: redis, postgres, memory", cfg.Storage.Driver)
	}
	cfg.Storage.Driver = driver
	return nil
}
