package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "HOST", "VEHICLE_FEED_FORMAT", "CACHE_TTL_SECONDS",
		"HTTP_TIMEOUT_SECONDS", "RATE_LIMIT_PER_MINUTE", "ALLOWED_ORIGINS", "ALLOWED_HOSTS", "TRUSTED_PROXY", "TZ"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Addr() != "0.0.0.0:8000" {
		t.Errorf("Addr = %q", cfg.Addr())
	}
	if cfg.FeedFormat != FeedJSON {
		t.Errorf("FeedFormat = %q", cfg.FeedFormat)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.CacheTTL != 10*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.HTTPTimeout, cfg.CacheTTL)
	}
	if cfg.RateLimit != 30 {
		t.Errorf("RateLimit = %d", cfg.RateLimit)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://localhost:8000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if len(cfg.AllowedHosts) != 2 || cfg.AllowedHosts[1] != "127.0.0.1" {
		t.Errorf("AllowedHosts = %v", cfg.AllowedHosts)
	}
	if cfg.TrustedProxy {
		t.Error("TrustedProxy should default to false")
	}
	if cfg.Location.String() != "Europe/Lisbon" {
		t.Errorf("Location = %v", cfg.Location)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("VEHICLE_FEED_FORMAT", "GTFSRT")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("CACHE_TTL_SECONDS", "0")
	t.Setenv("ALLOWED_ORIGINS", " https://bus.example.org , ")
	t.Setenv("TRUSTED_PROXY", "true")
	t.Setenv("TZ", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.FeedFormat != FeedGTFSRT {
		t.Errorf("FeedFormat = %q", cfg.FeedFormat)
	}
	if cfg.HTTPTimeout != 3*time.Second || cfg.CacheTTL != 0 {
		t.Errorf("timeouts = %v/%v", cfg.HTTPTimeout, cfg.CacheTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://bus.example.org" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if !cfg.TrustedProxy {
		t.Error("TrustedProxy should be enabled")
	}
}

func TestLoadInvalidTimezone(t *testing.T) {
	t.Setenv("TZ", "Mars/Olympus_Mons")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown time zone")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		FeedFormat:     "xml",
		HTTPTimeout:    0,
		RateLimit:      30,
		AllowedOrigins: nil,
		AllowedHosts:   []string{"localhost"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"VEHICLE_FEED_FORMAT", "HTTP_TIMEOUT_SECONDS", "ALLOWED_ORIGINS"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}
