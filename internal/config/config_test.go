package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Addr(); got != "0.0.0.0:8000" {
		t.Fatalf("Addr() = %q", got)
	}
	if cfg.APIPrefix != "/api/v1/geo" {
		t.Fatalf("APIPrefix = %q", cfg.APIPrefix)
	}
	if cfg.Auth.Algorithm != "HS256" {
		t.Fatalf("Algorithm = %q", cfg.Auth.Algorithm)
	}
	if cfg.DefaultCountry != "Colombia" {
		t.Fatalf("DefaultCountry = %q", cfg.DefaultCountry)
	}
	if cfg.Auth.Secret == "" {
		t.Fatal("default secret must not be empty")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVICE_HOST", "127.0.0.1")
	t.Setenv("SERVICE_PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://geo:geo@db:5432/geo?sslmode=disable")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Addr(); got != "127.0.0.1:9000" {
		t.Fatalf("Addr() = %q", got)
	}
	if cfg.Database.DSN == "" {
		t.Fatal("DATABASE_URL not applied")
	}
	if cfg.Auth.Secret != "s3cret" {
		t.Fatalf("Secret = %q", cfg.Auth.Secret)
	}
	if len(cfg.CORS.Origins) != 2 || cfg.CORS.Origins[1] != "https://b.example.com" {
		t.Fatalf("CORS origins = %v", cfg.CORS.Origins)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestConfigFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: 9100\ndefault_country: Peru\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVICE_PORT", "9200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Environment wins over the file; file wins over defaults.
	if cfg.Server.Port != 9200 {
		t.Fatalf("port = %d, want env override 9200", cfg.Server.Port)
	}
	if cfg.DefaultCountry != "Peru" {
		t.Fatalf("DefaultCountry = %q, want file value", cfg.DefaultCountry)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"prefix without slash", func(c *Config) { c.APIPrefix = "api/v1/geo" }},
		{"unsupported algorithm", func(c *Config) { c.Auth.Algorithm = "RS256" }},
		{"empty secret", func(c *Config) { c.Auth.Secret = "" }},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
