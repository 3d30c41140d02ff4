package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("UPSTREAM_URL", "")
	t.Setenv("API_KEY", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.UpstreamAPIKey != "" {
		t.Fatalf("expected empty api key by default, got %s", cfg.UpstreamAPIKey)
	}
	if cfg.UpstreamTimeout != 30*time.Second {
		t.Fatalf("expected default upstream timeout, got %s", cfg.UpstreamTimeout)
	}
	if cfg.LogBufferSize != 100 {
		t.Fatalf("expected default log buffer size, got %d", cfg.LogBufferSize)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("throttling must be opt-in, got default rate %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected default burst, got %d", cfg.RateLimitBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UPSTREAM_URL", "https://script.example.com/exec")
	t.Setenv("API_KEY", "sekrit")
	t.Setenv("UPSTREAM_TIMEOUT", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("LOG_BUFFER_SIZE", "50")
	t.Setenv("DEBUG_LOGS", "false")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.UpstreamURL != "https://script.example.com/exec" {
		t.Fatalf("expected upstream override, got %s", cfg.UpstreamURL)
	}
	if cfg.UpstreamAPIKey != "sekrit" {
		t.Fatalf("expected api key override, got %s", cfg.UpstreamAPIKey)
	}
	if cfg.UpstreamTimeout != 45*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.UpstreamTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://staging.example.com" {
		t.Fatalf("expected CORS origins parsed, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LogBufferSize != 50 {
		t.Fatalf("expected log buffer override, got %d", cfg.LogBufferSize)
	}
	if cfg.DebugLogs {
		t.Fatalf("expected debug logs disabled")
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
}
