package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, key := range []string{"DB_HOST", "DB_NAME", "DB_CONNECT_TIMEOUT", "MIGRATIONS_PATH"} {
			t.Setenv(key, "")
		}

		cfg := LoadConfigFromEnv()
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, "gitlab_enricher", cfg.DBName)
		assert.Equal(t, 2*time.Minute, cfg.ConnectTimeout)
		assert.Equal(t, "migrations", cfg.MigrationsPath)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("custom values", func(t *testing.T) {
		t.Setenv("DB_HOST", "ledger")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("DB_NAME", "outcomes")
		t.Setenv("DB_SSLMODE", "require")
		t.Setenv("DB_CONNECT_TIMEOUT", "15s")
		t.Setenv("MIGRATIONS_PATH", "/srv/migrations")

		cfg := LoadConfigFromEnv()
		assert.Equal(t, "ledger", cfg.Host)
		assert.Equal(t, "5433", cfg.Port)
		assert.Equal(t, "outcomes", cfg.DBName)
		assert.Equal(t, "require", cfg.SSLMode)
		assert.Equal(t, 15*time.Second, cfg.ConnectTimeout)
		assert.Equal(t, "/srv/migrations", cfg.MigrationsPath)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Host: "h", Port: "5432", DBName: "d", ConnectTimeout: time.Second, MigrationsPath: "m"}
	assert.NoError(t, valid.Validate())

	noHost := valid
	noHost.Host = ""
	assert.Error(t, noHost.Validate())

	noTimeout := valid
	noTimeout.ConnectTimeout = 0
	assert.ErrorContains(t, noTimeout.Validate(), "DB_CONNECT_TIMEOUT")

	noPath := valid
	noPath.MigrationsPath = ""
	assert.ErrorContains(t, noPath.Validate(), "MIGRATIONS_PATH")
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		Host: "localhost", User: "agent", Password: "s3cret", DBName: "ledger",
		Port: "5432", SSLMode: "disable", TimeZone: "UTC",
	}
	assert.Equal(t,
		"host=localhost user=agent password=s3cret dbname=ledger port=5432 sslmode=disable TimeZone=UTC",
		cfg.DSN())
}

func TestConfig_Redact(t *testing.T) {
	cfg := Config{Host: "localhost", User: "agent", Password: "s3cret", DBName: "ledger", Port: "5432"}

	assert.NoError(t, cfg.Redact(nil))

	err := cfg.Redact(errors.New("cannot parse `" + cfg.DSN() + "`: password s3cret rejected"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cret")
	assert.Contains(t, err.Error(), "password=***")
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestLoadRetryConfigFromEnv(t *testing.T) {
	t.Setenv("DB_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("DB_RETRY_INITIAL_DELAY", "10ms")
	t.Setenv("DB_RETRY_MAX_DELAY", "")
	t.Setenv("DB_RETRY_MULTIPLIER", "1.5")

	cfg := LoadRetryConfigFromEnv()
	assert.Equal(t, 2, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxDelay)
	assert.Equal(t, 1.5, cfg.Multiplier)
	assert.Contains(t, cfg.RetryableErrors, "connection refused")
}
