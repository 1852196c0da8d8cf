// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"

	"github.com/JacobDahan/occam-api/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default value, logging the source for observability.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if value, ok := os.LookupEnv(key); ok && value != "" {
		logger.Debug().Str("key", key).Str("source", "environment").Msg("using environment variable")
		return value
	}
	logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
	return defaultValue
}

// ParseInt reads an integer from an environment variable or returns the
// default value. A present-but-unparseable value falls back to the
// default rather than failing startup.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
			return i
		}
		logger.Warn().Str("key", key).Str("value", value).Msg("invalid integer env var, using default")
	}
	logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
	return defaultValue
}
