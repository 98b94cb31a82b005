// Package config provides environment-driven application configuration.
package config

import "fmt"

// Application run modes.
const (
	ModeServer = "server"
	ModeBatch  = "batch"
)

// Config holds application configuration.
type Config struct {
	// Server holds HTTP server configuration.
	Server ServerConfig
	// Logger holds logger configuration.
	Logger LoggerConfig
	// GitLab holds GitLab API client configuration.
	GitLab GitLabConfig
	// Enrichment holds pipeline and batch runner configuration.
	Enrichment EnrichmentConfig
	// LedgerEnabled turns on the outcome ledger database.
	LedgerEnabled bool
	// Mode is the run mode (server, batch).
	Mode string
	// GinMode is the Gin framework mode (debug, release, test).
	GinMode string
}

// LoadFromEnv loads all configuration from environment variables.
func LoadFromEnv() Config {
	return Config{
		Server:        LoadServerConfigFromEnv(),
		Logger:        LoadLoggerConfigFromEnv(),
		GitLab:        LoadGitLabConfigFromEnv(),
		Enrichment:    LoadEnrichmentConfigFromEnv(),
		LedgerEnabled: GetEnvBool("LEDGER_ENABLED", false),
		Mode:          GetEnv("APP_MODE", ModeBatch),
		GinMode:       GetEnv("GIN_MODE", "release"),
	}
}

// Validate validates all configuration.
func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}

	if err := c.GitLab.Validate(); err != nil {
		return fmt.Errorf("gitlab config validation failed: %w", err)
	}

	if err := c.Enrichment.Validate(); err != nil {
		return fmt.Errorf("enrichment config validation failed: %w", err)
	}

	if c.Mode != ModeServer && c.Mode != ModeBatch {
		return fmt.Errorf("invalid APP_MODE: %s (must be: server, batch)", c.Mode)
	}

	validGinModes := map[string]bool{
		"debug":   true,
		"release": true,
		"test":    true,
	}
	if !validGinModes[c.GinMode] {
		return fmt.Errorf("invalid GIN_MODE: %s (must be: debug, release, test)", c.GinMode)
	}

	return nil
}
