// Package config loads service settings from environment variables, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/CDonnerer/vp-track-status/internal/domain"
	"github.com/joho/godotenv"
)

// Defaults for the Victoria Park rain gauge. Everything is overridable;
// nothing here is mutable package state.
const (
	DefaultStationID  = "239374TP"
	DefaultOutputFile = "data/rainfall/rainfall_239374TP_daily.csv"
	DefaultBaseURL    = "https://environment.data.gov.uk/flood-monitoring"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	StationID  string
	OutputFile string
	APIBaseURL string

	HTTPTimeout time.Duration

	LogLevel  string
	LogFormat string

	// Serve mode.
	HTTPAddr        string
	FetchSchedule   string // cron spec for scheduled runs
	FetchMode       domain.Mode
	FetchDays       int
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	mode, err := domain.ParseMode(envOrDefault("FETCH_MODE", string(domain.ModeLatest)))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_MODE: %w", err)
	}

	fetchDays, err := parseInt("FETCH_DAYS", domain.DefaultLatestDays)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		StationID:  envOrDefault("STATION_ID", DefaultStationID),
		OutputFile: envOrDefault("OUTPUT_FILE", DefaultOutputFile),
		APIBaseURL: envOrDefault("API_BASE_URL", DefaultBaseURL),

		HTTPTimeout: httpTimeout,

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		FetchSchedule:   envOrDefault("FETCH_SCHEDULE", "@every 6h"),
		FetchMode:       mode,
		FetchDays:       fetchDays,
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.StationID == "" {
		return nil, errors.New("STATION_ID is required")
	}
	if cfg.OutputFile == "" {
		return nil, errors.New("OUTPUT_FILE is required")
	}
	if cfg.FetchDays <= 0 {
		return nil, errors.New("FETCH_DAYS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
