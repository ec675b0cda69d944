package util

import (
	"os"
	"strconv"
)

// EnvOrDefault returns the environment variable value, or fallback when the
// variable is unset or empty.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// EnvBoolOrDefault parses the environment variable as a boolean, returning
// fallback when it is unset, empty or unparsable.
func EnvBoolOrDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
