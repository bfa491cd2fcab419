package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	SeedPath    string

	OSRMBaseURL string
	OSRMProfile string

	// NATSURL empty disables schedule-change event publishing.
	NATSURL string

	// MetricsAddr empty disables the metrics server.
	MetricsAddr string

	MaxRoutingFanout int
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.DatabaseURL = firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL must be set")
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.SeedPath = getenvDefault("SEED_PATH", "data/seeds/demo_trip.json")

	cfg.OSRMBaseURL = getenvDefault("OSRM_BASE_URL", "https://router.project-osrm.org")
	cfg.OSRMProfile = getenvDefault("OSRM_PROFILE", "driving")

	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	if v := os.Getenv("MAX_ROUTING_FANOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid MAX_ROUTING_FANOUT: %q", v)
		}
		cfg.MaxRoutingFanout = n
	} else {
		cfg.MaxRoutingFanout = 5
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
