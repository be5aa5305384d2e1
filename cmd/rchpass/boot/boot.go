// Package boot loads the configuration and sets up logging for the
// rchpass commands.
package boot

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/rchpass/internal/config"
	"github.com/okian/rchpass/pkg/logger"
)

// ConfigUsage is the help text shared by the --config flag.
const ConfigUsage = `
The configuration is read from the file given with --config, or from the
file in the RCHPASS_CONFIG environment variable. RCHPASS_* variables
override file values, for example RCHPASS_OUTPUT_DIR.`

// Config loads the configuration from path, or from RCHPASS_CONFIG when
// path is empty, and initializes the global logger on stderr with the
// configured format and level.
func Config(ctx context.Context, path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(ctx, path)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := Logging(cfg.LogFormat, cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logging initializes the global logger on stderr.
func Logging(format, level string) error {
	if err := logger.InitWriter(os.Stderr, format); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}
