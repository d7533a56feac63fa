// Package config handles service configuration.
//
// Server and database knobs come from environment variables with defaults.
// Engine tuning (matcher confidence weights, fee tiers) lives in an optional
// engine.yml validated with struct tags, so the weights are named
// configuration rather than literals scattered across call sites.
package config

import "os"

// Config holds all environment-driven configuration for the API service.
type Config struct {
	Port string

	// Storage: DatabaseURL selects Postgres when set; otherwise the
	// service falls back to a local SQLite file at DatabasePath.
	DatabaseURL  string
	DatabasePath string

	// EnginePath points at the engine.yml tuning file. Defaults apply
	// when the file is absent.
	EnginePath string

	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabasePath:   getEnv("SQLITE_DATABASE", "data/parcelbridge.db"),
		EnginePath:     getEnv("ENGINE_CONFIG", "engine.yml"),
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:3000")},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
