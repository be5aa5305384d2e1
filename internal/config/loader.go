package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names.
const (
	EnvPrefix = "RCHPASS_"
	EnvConfig = EnvPrefix + "CONFIG"
)

// Load builds a Config from defaults, the YAML file named by RCHPASS_CONFIG
// (if set) and RCHPASS_* env vars, in increasing precedence.
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvConfig))
}

// LoadFile is Load with an explicit file path; an empty path skips the file.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RCHPASS_SERIES_COLUMN -> series_column (flat keys, underscores kept)
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// the file path itself is not a setting
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
