package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the document and identity server configuration.
type Config struct {
	App struct {
		Name           string   `envconfig:"APP_NAME" default:"Spendly"`
		Port           int      `envconfig:"PORT" default:"8080"`
		AllowedOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"spendly"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		Secret     string        `envconfig:"JWT_SECRET"`
		Issuer     string        `envconfig:"JWT_ISSUER" default:"spendly"`
		TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
		BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Auth.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return &cfg, nil
}

// Client configures the terminal app and the import tool.
type Client struct {
	Store struct {
		URL         string        `envconfig:"SPENDLY_STORE_URL" default:"http://localhost:8080"`
		IdentityURL string        `envconfig:"SPENDLY_IDENTITY_URL" default:"http://localhost:8080"`
		APIKey      string        `envconfig:"SPENDLY_API_KEY"`
		Timeout     time.Duration `envconfig:"SPENDLY_TIMEOUT" default:"15s"`
	}

	Local struct {
		Enabled bool   `envconfig:"SPENDLY_LOCAL" default:"false"`
		Path    string `envconfig:"SPENDLY_DB_PATH" default:"spendly.db"`
	}

	ExportDir string `envconfig:"SPENDLY_EXPORT_DIR" default:"."`
	LogFile   string `envconfig:"SPENDLY_LOG_FILE"`
}

func LoadClient() (*Client, error) {
	var cfg Client
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if !cfg.Local.Enabled && cfg.Store.URL == "" {
		return nil, errors.New("SPENDLY_STORE_URL is required unless SPENDLY_LOCAL is set")
	}

	return &cfg, nil
}
