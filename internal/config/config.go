// Package config loads service settings from the environment and optional
// .env files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// DatabaseOptions holds PostgreSQL connection settings.
type DatabaseOptions struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"qplan"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN builds a libpq-compatible connection string.
func (d DatabaseOptions) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type MongoOptions struct {
	URI      string `env:"MONGO_URI" envDefault:"mongodb://127.0.0.1:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DATABASE" envDefault:"qplan"`
}

// AssistantOptions configures the OpenAI-compatible answer service.
type AssistantOptions struct {
	APIKey  string        `env:"OPENAI_KEY"`
	BaseURL string        `env:"OPENAI_BASE_URL"`
	Model   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	Timeout time.Duration `env:"ASSISTANT_TIMEOUT" envDefault:"20s"`
}

type Config struct {
	Database  DatabaseOptions
	Mongo     MongoOptions
	Assistant AssistantOptions

	Port          string   `env:"PORT" envDefault:"8080"`
	StoreBackend  string   `env:"STORE_BACKEND" envDefault:"postgres"`
	AdminIdentity string   `env:"ADMIN_IDENTITY" envDefault:"admin@example.com"`
	LogLevel      string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string   `env:"LOG_FORMAT" envDefault:"text"`
	AllowedOrigin []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	SeedDemoData  bool     `env:"SEED_DEMO_DATA" envDefault:"false"`
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be one of %q, %q or %q, got %q",
			BackendPostgres, BackendMongo, BackendMemory, c.StoreBackend)
	}
	if c.AdminIdentity == "" {
		return fmt.Errorf("ADMIN_IDENTITY must not be empty")
	}
	if c.Assistant.Timeout <= 0 {
		return fmt.Errorf("ASSISTANT_TIMEOUT must be positive, got %s", c.Assistant.Timeout)
	}
	return nil
}

// LoadEnv loads whichever of the given .env files exist. Variables already
// present in the environment win.
func LoadEnv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load reads .env files, then parses and validates the environment.
func Load() (*Config, error) {
	if err := LoadEnv(".env", ".env.local"); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
