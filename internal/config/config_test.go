package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "host=localhost")
	t.Setenv("SESSION_SECRET", "secret")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.DBDriver != "postgres" || cfg.ServerPort != "8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected jwt secret to fall back to session secret, got %q", cfg.JWTSecret)
	}
	if cfg.JWTTTL != 12*time.Hour {
		t.Fatalf("expected 12h ttl, got %v", cfg.JWTTTL)
	}
	if cfg.SMTPPort != 587 || cfg.DriverDaysScope != "project" {
		t.Fatalf("unexpected smtp/scope defaults %+v", cfg)
	}
	if cfg.TimeLocation().String() != "Asia/Dubai" {
		t.Fatalf("unexpected location %v", cfg.TimeLocation())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{"SESSION_SECRET": "s"}},
		{"missing secret", map[string]string{"DB_DSN": "x"}},
		{"bad driver", map[string]string{"DB_DSN": "x", "SESSION_SECRET": "s", "DB_DRIVER": "mysql"}},
		{"bad zone", map[string]string{"DB_DSN": "x", "SESSION_SECRET": "s", "APP_TIMEZONE": "Mars/Olympus"}},
		{"bad ttl", map[string]string{"DB_DSN": "x", "SESSION_SECRET": "s", "JWT_TTL": "soon"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DB_DSN", "")
			t.Setenv("SESSION_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Parse(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
