// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Vehicle feed formats
const (
	FeedJSON   = "json"
	FeedGTFSRT = "gtfsrt"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	Host           string
	Env            string
	LogLevel       string
	CarrisBaseURL  string
	FeedFormat     string
	GTFSRTURL      string
	DirectionsFile string
	CacheTTL       time.Duration
	HTTPTimeout    time.Duration
	RateLimit      int
	AllowedOrigins []string
	AllowedHosts   []string
	TrustedProxy   bool
	Location       *time.Location
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tzName := getEnv("TZ", "Europe/Lisbon")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ %q: %w", tzName, err)
	}

	port := getEnv("PORT", "8000")
	return &Config{
		Port:           port,
		Host:           getEnv("HOST", "0.0.0.0"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CarrisBaseURL:  getEnv("CARRIS_API_BASE_URL", "https://api.carrismetropolitana.pt"),
		FeedFormat:     strings.ToLower(getEnv("VEHICLE_FEED_FORMAT", FeedJSON)),
		GTFSRTURL:      getEnv("GTFS_RT_VEHICLES_URL", "https://api.carrismetropolitana.pt/gtfs-rt"),
		DirectionsFile: getEnv("DIRECTIONS_FILE", ""),
		CacheTTL:       getDurationEnv("CACHE_TTL_SECONDS", 10) * time.Second,
		HTTPTimeout:    getDurationEnv("HTTP_TIMEOUT_SECONDS", 10) * time.Second,
		RateLimit:      getIntEnv("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins: getListEnv("ALLOWED_ORIGINS", "http://localhost:"+port+",http://127.0.0.1:"+port),
		AllowedHosts:   getListEnv("ALLOWED_HOSTS", "localhost,127.0.0.1"),
		TrustedProxy:   getBoolEnv("TRUSTED_PROXY", false),
		Location:       loc,
	}, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.FeedFormat {
	case FeedJSON, FeedGTFSRT:
	default:
		errs = append(errs, fmt.Errorf("VEHICLE_FEED_FORMAT must be %q or %q, got %q", FeedJSON, FeedGTFSRT, c.FeedFormat))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT_SECONDS must be positive"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("CACHE_TTL_SECONDS must not be negative"))
	}
	if c.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("ALLOWED_ORIGINS must list at least one origin"))
	}
	if len(c.AllowedHosts) == 0 {
		errs = append(errs, errors.New("ALLOWED_HOSTS must list at least one host"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(getIntEnv(key, defaultSeconds))
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
