// Package config loads service configuration once at startup. The resulting
// Config is immutable and passed down explicitly; nothing reads the
// environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DigitalTwins-IS/ms-geo/pkg/logger"
)

// Service identity reported by health endpoints.
const (
	ServiceName    = "ms-geo"
	ServiceVersion = "1.0.0"
)

// Config is the full service configuration.
type Config struct {
	APIPrefix string          `yaml:"api_prefix"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   logger.Config   `yaml:"logging"`

	// DefaultCountry is assigned to cities created without a country and
	// reported for validated coordinates.
	DefaultCountry string `yaml:"default_country"`
}

// ServerConfig holds the HTTP bind address.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds the PostgreSQL connection settings. An empty DSN
// selects the in-memory store (local development and tests).
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// AuthConfig configures validation of MS-AUTH issued tokens. This service
// never issues tokens.
type AuthConfig struct {
	Secret    string `yaml:"secret"`
	Algorithm string `yaml:"algorithm"`
}

// RedisConfig configures the optional read cache. Empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl"` // seconds
}

// RateLimitConfig bounds request rates per client.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// Load builds the configuration from an optional YAML file (CONFIG_FILE),
// an optional .env file, and the environment. Environment values win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		APIPrefix: "/api/v1/geo",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Auth: AuthConfig{
			Secret:    "your-secret-key-here-change-in-production",
			Algorithm: "HS256",
		},
		Redis: RedisConfig{
			TTL: 60,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:3000", "http://localhost:8080", "http://localhost"},
		},
		Logging: logger.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		DefaultCountry: "Colombia",
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVICE_HOST")
	setInt(&cfg.Server.Port, "SERVICE_PORT")
	setString(&cfg.APIPrefix, "API_PREFIX")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setInt(&cfg.Database.MaxOpenConns, "DATABASE_MAX_OPEN_CONNS")
	setInt(&cfg.Database.MaxIdleConns, "DATABASE_MAX_IDLE_CONNS")
	setInt(&cfg.Database.ConnMaxLifetime, "DATABASE_CONN_MAX_LIFETIME")
	setString(&cfg.Auth.Secret, "SECRET_KEY")
	setString(&cfg.Auth.Algorithm, "JWT_ALGORITHM")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setInt(&cfg.Redis.TTL, "REDIS_TTL")
	setInt(&cfg.RateLimit.RequestsPerSecond, "RATE_LIMIT_RPS")
	setInt(&cfg.RateLimit.Burst, "RATE_LIMIT_BURST")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Logging.Output, "LOG_OUTPUT")
	setString(&cfg.DefaultCountry, "DEFAULT_COUNTRY")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, origin := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		cfg.CORS.Origins = origins
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid service port %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("api prefix must start with /")
	}
	if c.Auth.Algorithm != "HS256" {
		return fmt.Errorf("unsupported jwt algorithm %q", c.Auth.Algorithm)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("jwt secret must not be empty")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	return nil
}

// Addr returns the host:port the server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
