// Package types contains read models shared by the service and its outer
// surfaces.
package types

import (
	"errors"

	"github.com/okian/rchpass/internal/domain/series"
)

// RunStats summarises the loaded coupling run.
type RunStats struct {
	RunID    string `json:"run_id"`
	Model    string `json:"model"`
	Rows     int    `json:"rows"`
	Cols     int    `json:"cols"`
	Shapes   int    `json:"shapes"`
	Periods  int    `json:"periods"`
	Bounded  bool   `json:"bounded"`
	Covered  int    `json:"covered_cells"`
	Overlaps int    `json:"overlapping_cells"`
	LoadedAt string `json:"loaded_at"`
}

// ShapeSummary describes one zone of the run, by registration position.
type ShapeSummary struct {
	Index  int          `json:"index"`
	Mask   string       `json:"mask"`
	Extra  []string     `json:"extra,omitempty"`
	Series string       `json:"series"`
	Cells  int          `json:"cells"`
	Stats  series.Stats `json:"series_stats"`
}

// ErrNotLoaded reports a read before any run was loaded.
var ErrNotLoaded = errors.New("no coupling run loaded")
