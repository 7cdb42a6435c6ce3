package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. It is built once at startup
// and passed by pointer to whatever needs it; nothing mutates it afterwards.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Provider ProviderConfig `yaml:"provider"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionKey string        `yaml:"session_key"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
}

type ProviderConfig struct {
	QuoteSource         string        `yaml:"quote_source"`
	SeriesSource        string        `yaml:"series_source"`
	FinnhubAPIKey       string        `yaml:"finnhub_api_key"`
	FinnhubBaseURL      string        `yaml:"finnhub_base_url"`
	AlphaVantageAPIKey  string        `yaml:"alphavantage_api_key"`
	AlphaVantageBaseURL string        `yaml:"alphavantage_base_url"`
	Timeout             time.Duration `yaml:"timeout"`
	MaxConcurrency      int           `yaml:"max_concurrency"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	FileEnabled   bool   `yaml:"file_enabled"`
	FilePath      string `yaml:"file_path"`
	RotationSize  int    `yaml:"rotation_size"`
	RetentionDays int    `yaml:"retention_days"`
}

// Known provider source names.
const (
	SourceFinnhub      = "finnhub"
	SourceAlphaVantage = "alphavantage"
	SourceYahoo        = "yahoo"
)

// Load reads .env (if present), then the optional YAML file at path, then
// applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	// .env is optional; plain environment variables work without it.
	_ = godotenv.Load()

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	setString(&c.Database.URL, "DATABASE_URL")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.SessionKey, "SESSION_KEY")

	setString(&c.Provider.QuoteSource, "QUOTE_SOURCE")
	setString(&c.Provider.SeriesSource, "SERIES_SOURCE")
	setString(&c.Provider.FinnhubAPIKey, "FINNHUB_API_KEY")
	setString(&c.Provider.FinnhubBaseURL, "FINNHUB_BASE_URL")
	setString(&c.Provider.AlphaVantageAPIKey, "ALPHAVANTAGE_API_KEY")
	setString(&c.Provider.AlphaVantageBaseURL, "ALPHAVANTAGE_BASE_URL")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Logging.FilePath, "LOG_PATH")

	if err := setDuration(&c.Auth.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.Provider.Timeout, "PROVIDER_TIMEOUT"); err != nil {
		return err
	}
	if v := os.Getenv("MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MAX_CONCURRENCY: %w", err)
		}
		c.Provider.MaxConcurrency = n
	}
	if v := os.Getenv("LOG_FILE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse LOG_FILE_ENABLED: %w", err)
		}
		c.Logging.FileEnabled = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	// The session cookie is signed with the token secret unless told otherwise.
	if c.Auth.SessionKey == "" {
		c.Auth.SessionKey = c.Auth.JWTSecret
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Provider.QuoteSource == "" {
		c.Provider.QuoteSource = SourceFinnhub
	}
	if c.Provider.SeriesSource == "" {
		c.Provider.SeriesSource = SourceAlphaVantage
	}
	if c.Provider.FinnhubBaseURL == "" {
		c.Provider.FinnhubBaseURL = "https://finnhub.io/api/v1"
	}
	if c.Provider.AlphaVantageBaseURL == "" {
		c.Provider.AlphaVantageBaseURL = "https://www.alphavantage.co"
	}
	if c.Provider.AlphaVantageAPIKey == "" {
		c.Provider.AlphaVantageAPIKey = c.Provider.FinnhubAPIKey
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 10 * time.Second
	}
	if c.Provider.MaxConcurrency <= 0 {
		c.Provider.MaxConcurrency = 10
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs"
	}
	if c.Logging.RotationSize == 0 {
		c.Logging.RotationSize = 100
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = 30
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.Provider.QuoteSource {
	case SourceFinnhub, SourceYahoo:
	default:
		errs = append(errs, fmt.Errorf("unknown quote source %q", c.Provider.QuoteSource))
	}
	switch c.Provider.SeriesSource {
	case SourceAlphaVantage, SourceYahoo:
	default:
		errs = append(errs, fmt.Errorf("unknown series source %q", c.Provider.SeriesSource))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
