package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gong-export-go/internal/gong"
	"gong-export-go/internal/logger"
	"gong-export-go/internal/types"
)

var validate = validator.New()

type Config struct {
	AccessKey      string        `env:"GONG_ACCESS_KEY"`
	SecretKey      string        `env:"GONG_SECRET_KEY"`
	BaseURL        string        `env:"GONG_BASE_URL" envDefault:"https://api.gong.io" validate:"required,url"`
	RateLimitDelay time.Duration `env:"GONG_RATE_LIMIT_DELAY" envDefault:"350ms" validate:"gte=0"`
	HTTPTimeout    time.Duration `env:"GONG_HTTP_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	MaxRetries     uint64        `env:"GONG_MAX_RETRIES" envDefault:"3" validate:"lte=10"`
	Port           string        `env:"PORT" envDefault:"8080" validate:"numeric"`
	Environment    string        `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}
	cfg.AccessKey = strings.TrimSpace(cfg.AccessKey)
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Credential is the Basic credential built from the key pair, or "" when
// either key is missing.
func (c *Config) Credential() string {
	if c.AccessKey == "" || c.SecretKey == "" {
		return ""
	}
	return gong.BasicCredential(c.AccessKey, c.SecretKey)
}

// ClientOptions maps the upstream settings onto gong client options.
func (c *Config) ClientOptions(log *logger.Logger) []gong.Option {
	return []gong.Option{
		gong.WithHTTPClient(&http.Client{Timeout: c.HTTPTimeout}),
		gong.WithRateLimitDelay(c.RateLimitDelay),
		gong.WithMaxRetries(c.MaxRetries),
		gong.WithLogger(log),
	}
}

// NewClient builds a client for credential, or for the configured key pair
// when credential is empty.
func (c *Config) NewClient(credential string, log *logger.Logger) (*gong.Client, error) {
	if credential == "" {
		credential = c.Credential()
	}
	if credential == "" {
		return nil, errors.New("missing credentials: set GONG_ACCESS_KEY and GONG_SECRET_KEY")
	}
	return gong.New(credential, c.BaseURL, c.ClientOptions(log)...), nil
}

// ValidateExportOptions rejects unknown formats.
func ValidateExportOptions(opts types.ExportOptions) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("invalid export options: %w", err)
	}
	return nil
}

// LoadExportOptions reads a YAML options file over the defaults, so keys
// missing from the file keep their default value.
func LoadExportOptions(path string) (types.ExportOptions, error) {
	opts := types.DefaultExportOptions()
	b, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read export options: %w", err)
	}
	if err := yaml.Unmarshal(b, &opts); err != nil {
		return opts, fmt.Errorf("parse export options: %w", err)
	}
	if err := ValidateExportOptions(opts); err != nil {
		return opts, err
	}
	return opts, nil
}
