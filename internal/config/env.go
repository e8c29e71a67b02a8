// Package config loads and validates the game's tunable parameters.
package config

import (
	"os"
	"strconv"
	"time"
)

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// envFloat parses key as a float, keeping fallback when unset.
func envFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

// envInt parses key as an int, keeping fallback when unset.
func envInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

// envBool parses key as a bool, keeping fallback when unset.
func envBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

// envDuration parses key as a Go duration ("1200ms"), keeping fallback when unset.
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
