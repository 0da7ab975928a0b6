package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"texcollab/pkg/logger"
)

const (
	DefaultPort        = "8080"
	DefaultPresenceTTL = 30 * time.Second
)

// Config holds the server settings read from the environment.
type Config struct {
	Port        string
	LogLevel    string
	DatabaseURL string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	JWTSecret   string
	PresenceTTL time.Duration
}

// Load reads a .env file when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply their own
// environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := &Config{
		Port:        get("PORT"),
		LogLevel:    get("LOG_LEVEL"),
		DatabaseURL: get("DATABASE_URL"),
		RedisAddr:   get("REDIS_ADDR"),
		RedisPass:   get("REDIS_PASSWORD"),
		JWTSecret:   get("JWT_SECRET"),
		PresenceTTL: DefaultPresenceTTL,
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = discreteDSN(get)
	}
	if raw := get("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", raw, err)
		}
		cfg.RedisDB = db
	}
	if raw := get("PRESENCE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("invalid PRESENCE_TTL %q", raw)
		}
		cfg.PresenceTTL = ttl
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// UseMemoryStore reports whether documents should live in process memory.
func (c *Config) UseMemoryStore() bool {
	return c.DatabaseURL == "" || strings.EqualFold(c.DatabaseURL, "memory")
}

// discreteDSN assembles a postgres DSN from the user/password/host/port/dbname
// variables. It returns "" unless host and dbname are both set.
func discreteDSN(get func(string) string) string {
	host := get("host")
	name := get("dbname")
	if host == "" || name == "" {
		return ""
	}
	port := get("port")
	if port == "" {
		port = "5432"
	}
	sslmode := get("sslmode")
	if sslmode == "" {
		sslmode = "require"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", get("user"), get("password"), host, port, name, sslmode)
}
