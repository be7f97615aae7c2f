// Package config loads service configuration from the environment.
// cmd binaries load a .env file first, so local development works without
// exporting anything by hand.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the API server needs to start.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// DatabaseURL is the Postgres connection string. Empty disables report
	// persistence; the service still scores uploads.
	DatabaseURL string

	// ProfilesPath points to an optional YAML file with extra vendor
	// profiles, loaded on top of the built-in set.
	ProfilesPath string

	// JobQueueSize is the async scoring queue buffer.
	JobQueueSize int

	// JobWorkers is the number of concurrent scoring workers.
	JobWorkers int
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getenv("SPENDSCORE_PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		ProfilesPath: os.Getenv("SPENDSCORE_PROFILES"),
	}

	var err error
	if cfg.JobQueueSize, err = getenvInt("SPENDSCORE_QUEUE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.JobWorkers, err = getenvInt("SPENDSCORE_WORKERS", 2); err != nil {
		return nil, err
	}

	if cfg.JobQueueSize < 1 {
		return nil, fmt.Errorf("config: SPENDSCORE_QUEUE_SIZE must be positive")
	}
	if cfg.JobWorkers < 1 {
		return nil, fmt.Errorf("config: SPENDSCORE_WORKERS must be positive")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}
