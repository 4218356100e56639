package config

import (
	"errors"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string `env:"DB_DRIVER" envDefault:"postgres"`
	DBDSN         string `env:"DB_DSN"`
	ServerPort    string `env:"SERVER_PORT" envDefault:"8080"`
	SessionSecret string `env:"SESSION_SECRET"`

	JWTSecret string        `env:"JWT_SECRET"` // пусто: берётся SESSION_SECRET
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"12h"`

	// часовой пояс рабочего дня для посещаемости
	Location        string `env:"APP_TIMEZONE" envDefault:"Asia/Dubai"`
	DriverDaysScope string `env:"DRIVER_DAYS_SCOPE" envDefault:"project"`

	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername      string `env:"SMTP_USERNAME"`
	SMTPPassword      string `env:"SMTP_PASSWORD"`
	SMTPFrom          string `env:"SMTP_FROM" envDefault:"no-reply@site.local"`
	NotificationInbox string `env:"NOTIFICATION_INBOX"`
	AppBaseURL        string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@site.local"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"Admin123!"`
}

// Parse читает переменные окружения и проверяет обязательные значения.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.New("JWT_TTL must be positive")
	}
	if _, err := time.LoadLocation(cfg.Location); err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return cfg, nil
}

// Часовой пояс из конфига; Parse уже проверил, что он существует.
func (c *Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
