package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, SourceSalesforce, cfg.RecordSource)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.Equal(t, "v59.0", cfg.Salesforce.APIVersion)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("RECORD_SOURCE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("SF_USERNAME", "ops@example.com")
	t.Setenv("SF_MAX_RETRIES", "5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, SourceSQLite, cfg.RecordSource)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, "ops@example.com", cfg.Salesforce.Username)
	assert.Equal(t, 5, cfg.Salesforce.MaxRetries)
}

func TestFromEnvRejectsUnknownSource(t *testing.T) {
	t.Setenv("RECORD_SOURCE", "csv")
	_, err := FromEnv()
	assert.Error(t, err)
}
