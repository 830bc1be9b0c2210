// Package config loads application settings from the environment.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds the runtime settings of the API server
type Config struct {
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	SeedData       bool
}

// Load reads the configuration from environment variables, falling back to
// defaults suitable for local development
func Load() *Config {
	seed, err := strconv.ParseBool(getEnv("SEED_DATA", "true"))
	if err != nil {
		log.Printf("Warning: invalid SEED_DATA value, seeding enabled: %v", err)
		seed = true
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getEnv("DATABASE_URL", "movies.db"),
		SeedData:       seed,
	}
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
