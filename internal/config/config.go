package config

import (
	"os"
	"strconv"
)

type Config struct {
	DatabasePath string
	Port         string
	LogLevel     string
	RequireAuth  bool
}

func Load() (Config, error) {
	config := Config{
		DatabasePath: envOrDefault("DATABASE_PATH", "./data/routinely.db"),
		Port:         envOrDefault("PORT", "8080"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		RequireAuth:  envBool("REQUIRE_AUTH", false),
	}
	return config, nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
