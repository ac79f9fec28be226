package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBPath   string
	LogLevel string

	// CheckinRadiusMeters is how far from an event's location a GPS check-in
	// is still accepted.
	CheckinRadiusMeters float64

	VoucherTTL time.Duration
	SessionTTL time.Duration
}

// Load reads configuration from the environment. A .env file is applied
// first when present; missing is fine (production sets real env vars).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PERKHIVE_PORT", "8080"),
		DBPath:   getEnv("PERKHIVE_DB_PATH", "perkhive.db"),
		LogLevel: getEnv("PERKHIVE_LOG_LEVEL", "info"),
	}

	radius, err := strconv.ParseFloat(getEnv("PERKHIVE_CHECKIN_RADIUS_M", "1100"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PERKHIVE_CHECKIN_RADIUS_M: %w", err)
	}
	cfg.CheckinRadiusMeters = radius

	cfg.VoucherTTL, err = time.ParseDuration(getEnv("PERKHIVE_VOUCHER_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid PERKHIVE_VOUCHER_TTL: %w", err)
	}

	cfg.SessionTTL, err = time.ParseDuration(getEnv("PERKHIVE_SESSION_TTL", "2160h"))
	if err != nil {
		return nil, fmt.Errorf("invalid PERKHIVE_SESSION_TTL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
