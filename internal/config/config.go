// Package config defines the coupling configuration and how it is loaded.
//
// Conventions:
//   - New(ctx) builds a Config holding every default.
//   - Load and LoadFile layer a YAML file and RCHPASS_* env vars on top.
//   - Errors wrap this package's sentinels.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
)

// ShapeConfig names the files of one zone. Extra masks are unioned into
// the zone's footprint.
type ShapeConfig struct {
	Mask   string   `koanf:"mask"`
	Series string   `koanf:"series"`
	Extra  []string `koanf:"extra"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Rows and Cols describe the groundwater model grid.
	Rows int `koanf:"rows"`
	Cols int `koanf:"cols"`

	// ModelName identifies the groundwater model in logs and errors.
	ModelName string `koanf:"model_name"`

	// Shapes lists the zones in registration order. Later zones win on
	// overlapping cells.
	Shapes []ShapeConfig `koanf:"shapes"`

	// SeriesColumn is the T_Level.out column holding the recharge flux.
	SeriesColumn string `koanf:"series_column"`

	// SeriesScale and SeriesOffset convert the raw column value:
	// recharge = scale*raw + offset.
	SeriesScale  float64 `koanf:"series_scale"`
	SeriesOffset float64 `koanf:"series_offset"`

	// SeriesMaxHeaderLines bounds the lines scanned for the column names.
	SeriesMaxHeaderLines int `koanf:"series_max_header_lines"`

	// SpinUp is the simulated time to discard at the start of every series.
	SpinUp float64 `koanf:"spin_up"`

	// WorkerCount sets the number of export workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the export job queue.
	QueueSize int `koanf:"queue_size"`

	// OutputDir receives the exported rch_<period>.txt files.
	OutputDir string `koanf:"output_dir"`

	// Periods limits how many stress periods are exported; 0 exports every
	// period all zones can serve.
	Periods int `koanf:"periods"`

	// ArrayHeader writes the MODFLOW array control line before each array.
	ArrayHeader bool `koanf:"array_header"`
}

// New creates a Config with defaults. The default grid matches the data
// set written by "rchpass sample".
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		Rows:                 10,
		Cols:                 10,
		ModelName:            "modflow",
		SeriesColumn:         "vBot",
		SeriesScale:          1,
		SeriesOffset:         0,
		SeriesMaxHeaderLines: 16,
		WorkerCount:          runtime.NumCPU(),
		QueueSize:            1024,
		OutputDir:            "rch",
		ArrayHeader:          true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Rows <= 0 || c.Cols <= 0:
		return fmt.Errorf("%w: grid %dx%d must have positive rows and cols", ErrInvalidConfig, c.Rows, c.Cols)
	case c.SeriesColumn == "":
		return fmt.Errorf("%w: series_column must not be empty", ErrInvalidConfig)
	case math.IsNaN(c.SeriesScale) || math.IsInf(c.SeriesScale, 0):
		return fmt.Errorf("%w: series_scale must be finite", ErrInvalidConfig)
	case math.IsNaN(c.SeriesOffset) || math.IsInf(c.SeriesOffset, 0):
		return fmt.Errorf("%w: series_offset must be finite", ErrInvalidConfig)
	case c.SeriesMaxHeaderLines <= 0:
		return fmt.Errorf("%w: series_max_header_lines must be positive", ErrInvalidConfig)
	case c.SpinUp < 0:
		return fmt.Errorf("%w: spin_up must not be negative", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.Periods < 0:
		return fmt.Errorf("%w: periods must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	for i, s := range c.Shapes {
		if s.Mask == "" || s.Series == "" {
			return fmt.Errorf("%w: shapes[%d] needs mask and series", ErrInvalidConfig, i)
		}
	}
	return nil
}
