package utils

import (
	"os"
	"strconv"
	"time"
)

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvInt reads an integer variable, returning the fallback when it is unset or malformed.
func GetenvInt(key string, fallback int) int {
	value, err := strconv.Atoi(Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

// GetenvDuration reads a duration such as "15m" or "1h30m".
func GetenvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}
