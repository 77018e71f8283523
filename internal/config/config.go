package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr         string        `env:"NOTICEBOARD_ADDR"`
	DBPath       string        `env:"NOTICEBOARD_DB" envDefault:"noticeboard.db"`
	AdminSecret  string        `env:"NOTICEBOARD_ADMIN_SECRET" envDefault:"dev-admin-secret"`
	HashSecret   string        `env:"NOTICEBOARD_HASH_SECRET" envDefault:"dev-hash-secret"`
	TokenTTL     time.Duration `env:"NOTICEBOARD_TOKEN_TTL" envDefault:"24h"`
	ChallengeTTL time.Duration `env:"NOTICEBOARD_CHALLENGE_TTL" envDefault:"5m"`
	LogLevel     string        `env:"NOTICEBOARD_LOG_LEVEL" envDefault:"info"`
	RateLimits   RateLimits
	Telemetry    Telemetry
}

type RateLimits struct {
	WritePerMinute  int `env:"NOTICEBOARD_RL_WRITE_PER_MIN" envDefault:"10"`
	ModifyPerMinute int `env:"NOTICEBOARD_RL_MODIFY_PER_MIN" envDefault:"30"`
}

// Telemetry controls trace export. An empty endpoint disables it.
type Telemetry struct {
	Endpoint string `env:"NOTICEBOARD_OTEL_ENDPOINT"`
	Enabled  bool   `env:"NOTICEBOARD_OTEL_ENABLED" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Addr = ":" + port
		} else {
			cfg.Addr = ":8080"
		}
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
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
