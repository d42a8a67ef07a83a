// Package config reads the process configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything cmd/server needs to start.
type Config struct {
	Addr          string
	StoreEngine   string // file | postgres | memory
	DataDir       string
	DatabaseURL   string
	OTLPEndpoint  string
	AdminUsername string
	AdminPassword string
}

// Load reads .env when present, then the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getEnv("ADDR", ":8080"),
		StoreEngine:   getEnv("STORE_ENGINE", "file"),
		DataDir:       getEnv("DATA_DIR", "data"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		OTLPEndpoint:  getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
