package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	Redis       Redis
	Auth        Auth   `envPrefix:"AUTH_"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Stripe      Stripe      `envPrefix:"STRIPE_"`
	MobileMoney MobileMoney `envPrefix:"MOBILE_MONEY_"`
	Email       Email       `envPrefix:"EMAIL_"`
	MailingList MailingList `envPrefix:"MAILING_LIST_"`
	Orders      Orders      `envPrefix:"ORDER_"`
	Chat        Chat        `envPrefix:"CHAT_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host         string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port         string        `env:"HTTP_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"` // 0 keeps SSE streams open
	CORSOrigins  []string      `env:"HTTP_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

type Database struct {
	Driver          string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	URL             string        `env:"DATABASE_URL" envDefault:"storefront.db"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Redis struct {
	URL     string `env:"REDIS_URL"`
	Channel string `env:"REDIS_CHAT_CHANNEL" envDefault:"admin_messages:insert"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
	Issuer    string `env:"JWT_ISSUER"`
}

type Stripe struct {
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	Tolerance     time.Duration `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`
}

type MobileMoney struct {
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type Email struct {
	BaseURL     string `env:"BASE_URL" envDefault:"https://api.resend.com"`
	FromAddress string `env:"FROM_ADDRESS" envDefault:"orders@example.com"`
	APIKey      string `env:"API_KEY"`
}

type MailingList struct {
	BaseURL string `env:"BASE_URL"`
	ListID  string `env:"LIST_ID"`
	APIKey  string `env:"API_KEY"`
}

type Orders struct {
	StrictTransitions   bool          `env:"STRICT_TRANSITIONS" envDefault:"false"`
	NotificationBuffer  int           `env:"NOTIFICATION_BUFFER" envDefault:"256"`
	NotificationWorkers int           `env:"NOTIFICATION_WORKERS" envDefault:"2"`
	NotificationTimeout time.Duration `env:"NOTIFICATION_TIMEOUT" envDefault:"15s"`
}

type Chat struct {
	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"200"`
}

func (c *Config) IsDevelopment() bool {
	return c.Environment.Name == "development"
}

// Load parses the process environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("AUTH_JWT_SECRET is required outside development")
	}

	if c.Stripe.WebhookSecret == "" && !c.IsDevelopment() {
		return errors.New("STRIPE_WEBHOOK_SECRET is required outside development")
	}

	if c.Orders.NotificationWorkers < 1 {
		return errors.New("ORDER_NOTIFICATION_WORKERS must be at least 1")
	}

	return nil
}
