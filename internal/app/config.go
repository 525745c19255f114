package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/stockroom-ims/stockroom/internal/notify"
	"github.com/stockroom-ims/stockroom/internal/shared"
)

const (
	devSessionSecret = "stockroom-dev-session-secret"
	devCSRFSecret    = "stockroom-dev-csrf-secret"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	RateLimit         int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET"`

	EmailHostUser     string `envconfig:"EMAIL_HOST_USER"`
	EmailHostPassword string `envconfig:"EMAIL_HOST_PASSWORD"`
	SMTPHost          string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort          int    `envconfig:"SMTP_PORT" default:"587"`
	AlertSender       string `envconfig:"ALERT_SENDER"`
	AlertReceiver     string `envconfig:"ALERT_RECEIVER"`

	StockAlertThreshold int `envconfig:"STOCK_ALERT_THRESHOLD" default:"2"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrConfiguration, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must be provided: %w", shared.ErrConfiguration)
	}
	if c.IsProduction() {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET must be provided in production: %w", shared.ErrConfiguration)
		}
		if c.CSRFSecret == "" {
			return fmt.Errorf("CSRF_SECRET must be provided in production: %w", shared.ErrConfiguration)
		}
	}
	if c.SessionSecret == "" {
		c.SessionSecret = devSessionSecret
	}
	if c.CSRFSecret == "" {
		c.CSRFSecret = devCSRFSecret
	}
	if c.StockAlertThreshold < 0 {
		return fmt.Errorf("STOCK_ALERT_THRESHOLD must not be negative: %w", shared.ErrConfiguration)
	}
	if c.SMTPPort <= 0 {
		return fmt.Errorf("SMTP_PORT must be positive: %w", shared.ErrConfiguration)
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// SMTP returns the mail relay settings for stock alerts. The receiver
// defaults to the relay login, so one account both sends and receives.
func (c *Config) SMTP() notify.SMTPConfig {
	to := c.AlertReceiver
	if to == "" {
		to = c.EmailHostUser
	}
	return notify.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.EmailHostUser,
		Password: c.EmailHostPassword,
		From:     c.AlertSender,
		To:       to,
	}
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
