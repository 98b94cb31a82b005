// Package config provides configuration for the outcome ledger database.
package config

import (
	"fmt"
	"strings"
	"time"

	appconfig "github.com/festy23/gitlab_enricher/internal/config"
	"github.com/festy23/gitlab_enricher/pkg/retry"
)

// Config holds ledger database connection configuration.
type Config struct {
	Host     string
	User     string
	Password string
	DBName   string
	Port     string
	SSLMode  string
	TimeZone string
	// ConnectTimeout bounds the whole retrying connect.
	ConnectTimeout time.Duration
	// MigrationsPath is the directory holding the SQL migrations.
	MigrationsPath string
}

// LoadConfigFromEnv loads database configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Host:           appconfig.GetEnv("DB_HOST", "localhost"),
		User:           appconfig.GetEnv("DB_USER", "postgres"),
		Password:       appconfig.GetEnv("DB_PASSWORD", "postgres"),
		DBName:         appconfig.GetEnv("DB_NAME", "gitlab_enricher"),
		Port:           appconfig.GetEnv("DB_PORT", "5432"),
		SSLMode:        appconfig.GetEnv("DB_SSLMODE", "disable"),
		TimeZone:       appconfig.GetEnv("DB_TIMEZONE", "UTC"),
		ConnectTimeout: appconfig.GetEnvDuration("DB_CONNECT_TIMEOUT", 2*time.Minute),
		MigrationsPath: appconfig.GetEnv("MIGRATIONS_PATH", "migrations"),
	}
}

// Validate validates database configuration.
func (c Config) Validate() error {
	if c.Host == "" || c.Port == "" || c.DBName == "" {
		return fmt.Errorf("DB_HOST, DB_PORT and DB_NAME are required")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive")
	}
	if c.MigrationsPath == "" {
		return fmt.Errorf("MIGRATIONS_PATH must not be empty")
	}
	return nil
}

// DSN builds the PostgreSQL connection string.
func (c Config) DSN() string {
	return c.dsn(c.Password)
}

func (c Config) dsn(password string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, password, c.DBName, c.Port, c.SSLMode, c.TimeZone)
}

// Redact removes the password from a connection error.
func (c Config) Redact(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ReplaceAll(err.Error(), c.DSN(), c.dsn("***"))
	if c.Password != "" {
		msg = strings.ReplaceAll(msg, c.Password, "***")
	}
	return fmt.Errorf("failed to connect to database: %s", msg)
}

// LoadRetryConfigFromEnv loads connect retry configuration from environment variables.
func LoadRetryConfigFromEnv() retry.Config {
	cfg := retry.PostgresConfig()
	cfg.MaxAttempts = appconfig.GetEnvInt("DB_RETRY_MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.InitialDelay = appconfig.GetEnvDuration("DB_RETRY_INITIAL_DELAY", cfg.InitialDelay)
	cfg.MaxDelay = appconfig.GetEnvDuration("DB_RETRY_MAX_DELAY", cfg.MaxDelay)
	cfg.Multiplier = appconfig.GetEnvFloat("DB_RETRY_MULTIPLIER", cfg.Multiplier)
	return cfg
}
