// Package config loads runtime configuration from environment variables.
// Each concern has its own loader so middleware can be configured
// independently of the core service settings.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the core settings: HTTP, storage, auth and invoicing.
type Config struct {
	Env       string `envconfig:"APP_ENV" default:"development"`
	Port      string `envconfig:"APP_PORT" default:"8080"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"mysql"` // mysql | memory
	DBUser        string `envconfig:"DB_USER" default:"root"`
	DBPass        string `envconfig:"DB_PASS"`
	DBHost        string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort        string `envconfig:"DB_PORT" default:"3306"`
	DBName        string `envconfig:"DB_NAME" default:"event_service"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	AccessTTLMin int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"60"`
	BcryptCost   int    `envconfig:"BCRYPT_COST" default:"10"`

	Currency      string `envconfig:"CURRENCY" default:"USD"`
	InvoiceLocale string `envconfig:"INVOICE_LOCALE" default:"en-US"`
}

// Load reads and validates Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case "mysql", "memory":
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, errors.New("JWT_SECRET must not be blank")
	}
	if cfg.AccessTTLMin <= 0 {
		return Config{}, errors.New("ACCESS_TOKEN_TTL_MIN must be positive")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("BCRYPT_COST %d out of range 4..31", cfg.BcryptCost)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "production" || c.Env == "prod" }

// QueueConfig describes the RabbitMQ event queue. An empty URL disables
// publishing and the event-log consumer.
type QueueConfig struct {
	URL    string `envconfig:"RABBITMQ_URL"`
	Queue  string `envconfig:"EVENTS_QUEUE" default:"event_service.events"`
	LogDir string `envconfig:"EVENTS_LOG_DIR" default:"logs"`
}

func LoadQueueConfig() (QueueConfig, error) {
	var cfg QueueConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}
