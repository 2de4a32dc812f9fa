package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/turnstile/internal/domain/model"
)

// Environment knobs read before any other source.
const (
	EnvPrefix  = "TURNSTILE_"
	EnvConfig  = EnvPrefix + "CONFIG"
	EnvDotEnv  = EnvPrefix + "ENV_FILE"
	defaultEnv = ".env"
)

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New(ctx))
//  2. a .env file (TURNSTILE_ENV_FILE, default ./.env) if present; it never
//     overrides variables already set
//  3. YAML file if TURNSTILE_CONFIG is set
//  4. env (prefix TURNSTILE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	dotenv := os.Getenv(EnvDotEnv)
	if dotenv == "" {
		dotenv = defaultEnv
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TURNSTILE_GATEWAY_URL -> gateway_url; CORS origins are comma separated.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
		if key == "cors_origins" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values both binaries rely on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.GatewayURL) == "":
		return fmt.Errorf("%w: gateway_url must not be empty", ErrInvalidConfig)
	case c.ReentryWindowMS <= 0:
		return fmt.Errorf("%w: reentry_window_ms must be positive", ErrInvalidConfig)
	case c.MinLength <= 0:
		return fmt.Errorf("%w: min_length must be positive", ErrInvalidConfig)
	case c.DebounceMS <= 0:
		return fmt.Errorf("%w: debounce_ms must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.ServerAddr == "":
		return fmt.Errorf("%w: server_addr must not be empty", ErrInvalidConfig)
	}
	if _, err := model.ParseMode(c.InitialMode); err != nil {
		return fmt.Errorf("%w: initial_mode: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Mode returns the parsed initial mode. Call after Validate.
func (c *Config) Mode() model.Mode {
	m, _ := model.ParseMode(c.InitialMode)
	return m
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
