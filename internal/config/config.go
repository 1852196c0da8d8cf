// SPDX-License-Identifier: MIT

// Package config loads occam-api's configuration from environment
// variables via ParseString/ParseInt (env.go), trimmed to this system's
// single source of configuration: env vars, no YAML file, no hot reload.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JacobDahan/occam-api/internal/log"
)

// Provider identifies which streaming-metadata upstream is active.
type Provider string

const (
	ProviderDirectIMDB Provider = "direct_imdb"
	ProviderProxiedID  Provider = "proxied_id"
)

// Config is the full set of environment-derived settings for the service.
type Config struct {
	DatabaseURL     string
	RedisURL        string
	StreamingAPIKey string
	StreamingAPIURL string
	Host            string
	Port            int
	Provider        Provider

	// SearchCacheTTLSeconds holds SEARCH_CACHE_TTL_SECONDS. The providers do
	// not read it: both cache title searches for a fixed 3600 s.
	SearchCacheTTLSeconds int

	// NiceToHaveWeights overrides the optimizer's spectrum of nice-to-have
	// bonus weights. Defaults to [0.1, 1.0, 3.0, 10.0, 100.0].
	NiceToHaveWeights []float64

	// MonthlyQuota bounds the direct-IMDB provider's monthly call budget; a
	// call that would exceed it is rejected before it reaches the upstream.
	// Only the direct-IMDB provider tracks usage against it; the proxied-id
	// provider owns no equivalent quota of its own.
	MonthlyQuota int
}

// Load reads configuration from the process environment, applying sane
// defaults for everything but credentials. It returns an error if
// STREAMING_API_KEY is absent (there is no sane default for a credential)
// or if STREAMING_PROVIDER names an unrecognized provider.
func Load() (Config, error) {
	logger := log.WithComponent("config")

	apiKey := ParseString("STREAMING_API_KEY", "")
	if apiKey == "" {
		return Config{}, fmt.Errorf("config: STREAMING_API_KEY is required")
	}

	providerRaw := ParseString("STREAMING_PROVIDER", string(ProviderDirectIMDB))
	provider := Provider(providerRaw)
	if provider != ProviderDirectIMDB && provider != ProviderProxiedID {
		return Config{}, fmt.Errorf("config: unknown STREAMING_PROVIDER %q", providerRaw)
	}

	cfg := Config{
		DatabaseURL:           ParseString("DATABASE_URL", "occam.db"),
		RedisURL:              ParseString("REDIS_URL", "redis://localhost:6379"),
		StreamingAPIKey:       apiKey,
		StreamingAPIURL:       ParseString("STREAMING_API_URL", defaultAPIURL(provider)),
		Host:                  ParseString("HOST", "127.0.0.1"),
		Port:                  ParseInt("PORT", 3000),
		Provider:              provider,
		SearchCacheTTLSeconds: ParseInt("SEARCH_CACHE_TTL_SECONDS", 3600),
		NiceToHaveWeights:     parseWeights(ParseString("NICE_TO_HAVE_WEIGHTS", "")),
		MonthlyQuota:          ParseInt("MONTHLY_QUOTA", 25000),
	}

	logger.Info().
		Str("provider", string(cfg.Provider)).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("configuration loaded")

	return cfg, nil
}

func defaultAPIURL(provider Provider) string {
	switch provider {
	case ProviderProxiedID:
		return "https://api.watchmode.com"
	default:
		return "https://streaming-availability.p.rapidapi.com"
	}
}

var defaultWeights = []float64{0.1, 1.0, 3.0, 10.0, 100.0}

func parseWeights(raw string) []float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultWeights
	}
	parts := strings.Split(raw, ",")
	weights := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		w, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return defaultWeights
		}
		weights = append(weights, w)
	}
	if len(weights) == 0 {
		return defaultWeights
	}
	return weights
}
