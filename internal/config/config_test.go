package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NOTICEBOARD_ADDR", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.Addr)
	}
	if cfg.DBPath != "noticeboard.db" {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.TokenTTL != 24*time.Hour || cfg.ChallengeTTL != 5*time.Minute {
		t.Fatalf("unexpected ttls: %v %v", cfg.TokenTTL, cfg.ChallengeTTL)
	}
	if cfg.RateLimits.WritePerMinute != 10 || cfg.RateLimits.ModifyPerMinute != 30 {
		t.Fatalf("unexpected rate limits: %+v", cfg.RateLimits)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "" {
		t.Fatalf("unexpected telemetry: %+v", cfg.Telemetry)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NOTICEBOARD_ADDR", "")
	t.Setenv("PORT", "9999")
	t.Setenv("NOTICEBOARD_TOKEN_TTL", "1h")
	t.Setenv("NOTICEBOARD_RL_WRITE_PER_MIN", "3")
	t.Setenv("NOTICEBOARD_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected PORT fallback, got %q", cfg.Addr)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("expected 1h, got %v", cfg.TokenTTL)
	}
	if cfg.RateLimits.WritePerMinute != 3 {
		t.Fatalf("expected 3, got %d", cfg.RateLimits.WritePerMinute)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}

	t.Setenv("NOTICEBOARD_ADDR", "127.0.0.1:7000")
	cfg, _ = Load()
	if cfg.Addr != "127.0.0.1:7000" {
		t.Fatalf("expected explicit addr, got %q", cfg.Addr)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("NOTICEBOARD_CHALLENGE_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
