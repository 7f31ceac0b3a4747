package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	SourceSalesforce = "salesforce"
	SourceSQLite     = "sqlite"
)

type Config struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	LogLevel     slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	RecordSource string        `env:"RECORD_SOURCE" envDefault:"salesforce"`
	SQLitePath   string        `env:"SQLITE_PATH" envDefault:"leads.db"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envDefault:"*"`
	Salesforce   Salesforce    `envPrefix:"SF_"`
}

type Salesforce struct {
	LoginURL      string        `env:"LOGIN_URL" envDefault:"https://login.salesforce.com"`
	InstanceURL   string        `env:"INSTANCE_URL"`
	AccessToken   string        `env:"ACCESS_TOKEN"`
	ClientID      string        `env:"CLIENT_ID"`
	ClientSecret  string        `env:"CLIENT_SECRET"`
	Username      string        `env:"USERNAME"`
	Password      string        `env:"PASSWORD"`
	SecurityToken string        `env:"SECURITY_TOKEN"`
	APIVersion    string        `env:"API_VERSION" envDefault:"v59.0"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"2"`
	RetryBase     time.Duration `env:"RETRY_BASE" envDefault:"200ms"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.RecordSource {
	case SourceSalesforce, SourceSQLite:
	default:
		return Config{}, fmt.Errorf("RECORD_SOURCE must be %q or %q, got %q", SourceSalesforce, SourceSQLite, cfg.RecordSource)
	}
	return cfg, nil
}
