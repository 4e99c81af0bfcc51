package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config holds the gateway's environment-derived settings. Every value
// except JWTSecret has a development-safe default.
type Config struct {
	ServerAddr  string
	Env         string
	RedisURL    string
	RedisPrefix string
	JWTSecret   string
	DatabaseURL string
	LogLevel    slog.Level
}

func Load() *Config {
	cfg := &Config{
		ServerAddr:  envOrDefault("SERVER_ADDR", ":5001"),
		Env:         envOrDefault("ENV", "development"),
		RedisURL:    envOrDefault("REDIS_URL", "redis://localhost:6379"),
		RedisPrefix: envOrDefault("REDIS_PREFIX", "development"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    parseLogLevel(os.Getenv("LOG_LEVEL")),
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		panic(fmt.Sprintf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}

	switch cfg.Env {
	case "development", "production", "test":
	default:
		slog.Warn("unrecognized ENV value", "env", cfg.Env)
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
