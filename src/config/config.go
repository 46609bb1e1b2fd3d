package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	JWTSecret       string        `env:"JWT_SECRET"`
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	FrontendURL     string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"120h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Mail            Mail
}

type Mail struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"MAIL_FROM" envDefault:"CashTrackr <admin@cashtrackr.com>"`
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}

	return cfg, nil
}
