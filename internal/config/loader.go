package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if CAPORSLAP_CONFIG is set
//  3. env (prefix CAPORSLAP_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CAPORSLAP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: CAPORSLAP_ADDR, CAPORSLAP_VERIFY_THRESHOLD, ...
	// Map env keys like CAPORSLAP_VERIFY_THRESHOLD -> verify_threshold.
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CAPORSLAP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "caporslap_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.StoreBackend != "memory" && cfg.StoreBackend != "redis" {
		return nil, errors.New("store_backend must be memory or redis")
	}
	if cfg.VerifyThreshold < 1 {
		return nil, errors.New("verify_threshold must be at least 1")
	}
	if len(cfg.Tokens) < 2 {
		return nil, errors.New("token pool needs at least two tokens")
	}
	return &cfg, nil
}
