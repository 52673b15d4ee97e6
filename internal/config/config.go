// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// --- HTTP ---
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// --- Database ---
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"bonus_user"`
	DBPassword    string `envconfig:"DB_PASSWORD" required:"true"`
	DBName        string `envconfig:"DB_NAME" default:"bonus_db"`
	DBSSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Jobs ---
	// Cron expression for the bonus expiry sweep.
	ExpirySweepSchedule string `envconfig:"EXPIRY_SWEEP_SCHEDULE" default:"*/15 * * * *"`
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if c.DBPort <= 0 {
		return fmt.Errorf("DB_PORT must be > 0")
	}
	// envconfig's required tag only checks presence, not emptiness.
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD must not be empty")
	}
	return nil
}

// Load reads environment variables into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
