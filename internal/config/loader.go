package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "CFBTV_"
	envFileVar = envPrefix + "ENV_FILE"
	configVar  = envPrefix + "CONFIG"
)

// listKeys are comma separated when read from the environment.
var listKeys = map[string]bool{ //nolint:gochecknoglobals // fixed key set
	"default_teams":   true,
	"metrics_labels":  true,
	"metrics_buckets": true,
}

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. dotenv file if CFBTV_ENV_FILE is set (fills unset env vars only)
//  3. file (YAML) if CFBTV_CONFIG is set
//  4. env (prefix CFBTV_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	// A dotenv file only seeds the process environment; real env vars win.
	if path := os.Getenv(envFileVar); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%w: env file %s: %w", ErrLoadConfig, path, err)
		}
	}

	k := koanf.New(".")

	if path := os.Getenv(configVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Environment variables: CFBTV_ADDR, CFBTV_GAMES_PATH, ...
	// Map env keys like CFBTV_GAMES_PATH -> games_path (flat keys).
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		switch key {
		case "env_file", "config":
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy. Lists replace the default rather than merge into it.
	cfg := *base
	for key := range listKeys {
		if !k.Exists(key) {
			continue
		}
		switch key {
		case "default_teams":
			cfg.DefaultTeams = nil
		case "metrics_labels":
			cfg.MetricsLabels = nil
		case "metrics_buckets":
			cfg.MetricsBuckets = nil
		}
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
