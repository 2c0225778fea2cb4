package common

import (
	"os"
	"strconv"
)

// GetEnvOrDefault returns the env var value or def when unset/empty.
func GetEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvOrDefaultInt returns the env var parsed as int, or def when unset
// or unparsable.
func GetEnvOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
