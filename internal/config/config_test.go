package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "sqlite::memory:")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Auth.SessionKey)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, SourceFinnhub, cfg.Provider.QuoteSource)
	assert.Equal(t, SourceAlphaVantage, cfg.Provider.SeriesSource)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 10, cfg.Provider.MaxConcurrency)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "7000"
auth:
  jwt_secret: from-file
  token_ttl: 1h
provider:
  finnhub_api_key: fh-key
  max_concurrency: 4
database:
  url: postgres://localhost/stocks
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PORT", "8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 4, cfg.Provider.MaxConcurrency)
	// The series key falls back to the quote key.
	assert.Equal(t, "fh-key", cfg.Provider.AlphaVantageAPIKey)
}

func TestValidateMissingRequired(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestValidateUnknownSource(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "sqlite::memory:"},
		Auth:     AuthConfig{JWTSecret: "x"},
		Provider: ProviderConfig{QuoteSource: "bloomberg"},
	}
	cfg.applyDefaults()

	assert.ErrorContains(t, cfg.Validate(), `unknown quote source "bloomberg"`)
}

func TestLoadBadDuration(t *testing.T) {
	t.Setenv("PROVIDER_TIMEOUT", "soon")

	_, err := Load("")
	assert.ErrorContains(t, err, "PROVIDER_TIMEOUT")
}
