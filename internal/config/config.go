package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/khoward12/yard-data-aggregation/internal/store"
)

var validate = validator.New()

// AppConfig holds every runtime setting, read from the environment.
type AppConfig struct {
	HusqvarnaAPIKey   string `validate:"required"`
	HusqvarnaUsername string `validate:"required"`
	HusqvarnaPassword string `validate:"required"`

	// RachioAPIKey is optional; when empty the sprinkler family is skipped.
	RachioAPIKey string

	DarkskyAPIKey string `validate:"required"`

	// MapboxAPIKey is required only when geocoding is enabled.
	MapboxAPIKey   string `validate:"required_if=GeocodeEnabled true"`
	GeocodeEnabled bool

	MySQL store.MySQLConfig

	// FetchInterval controls how often a run is triggered.
	FetchInterval time.Duration

	// HTTPTimeout applies to every upstream call.
	HTTPTimeout time.Duration

	// DetailWorkers bounds concurrent per-device detail fetches.
	DetailWorkers int

	Port string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	cfg := &AppConfig{
		HusqvarnaAPIKey:   os.Getenv("HUSQVARNA_API_KEY"),
		HusqvarnaUsername: os.Getenv("HUSQVARNA_USERNAME"),
		HusqvarnaPassword: os.Getenv("HUSQVARNA_PASSWORD"),
		RachioAPIKey:      os.Getenv("RACHIO_API_KEY"),
		DarkskyAPIKey:     os.Getenv("DARKSKY_API_KEY"),
		MapboxAPIKey:      os.Getenv("MAPBOX_API_KEY"),
		GeocodeEnabled:    getenvBool("GEOCODE_ENABLED", false),
		MySQL: store.MySQLConfig{
			Host:     getenvDefault("MYSQL_HOST", "localhost"),
			Port:     getenvDefault("MYSQL_PORT", "3306"),
			Username: os.Getenv("MYSQL_USERNAME"),
			Password: os.Getenv("MYSQL_PASSWORD"),
			Database: os.Getenv("MYSQL_DATABASE"),
		},
		DetailWorkers: getenvInt("DETAIL_WORKERS", 2),
		Port:          getenvDefault("PORT", "8080"),
	}

	intervalStr := getenvDefault("FETCH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if cfg.MySQL.Username == "" || cfg.MySQL.Database == "" {
		return nil, fmt.Errorf("MYSQL_USERNAME and MYSQL_DATABASE are required")
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
