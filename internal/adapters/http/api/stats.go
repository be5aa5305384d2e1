package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/rchpass/internal/domain/types"
)

// StatsProvider defines the interface for getting run statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (types.RunStats, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsProvider.Stats(r.Context())
	if err != nil {
		writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ShapesProvider lists the zones of the run.
type ShapesProvider interface {
	Shapes(ctx context.Context) ([]types.ShapeSummary, error)
}

// ShapesHandler handles shape listing requests.
type ShapesHandler struct {
	deps ShapesProvider
}

// NewShapesHandler creates a new shapes handler.
func NewShapesHandler(deps ShapesProvider) *ShapesHandler {
	return &ShapesHandler{deps: deps}
}

// HandleShapes handles GET /shapes requests.
func (h *ShapesHandler) HandleShapes(w http.ResponseWriter, r *http.Request) {
	shapes, err := h.deps.Shapes(r.Context())
	if err != nil {
		writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shapes)
}

// writeReadError maps service read errors to status codes.
func writeReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, types.ErrNotLoaded) {
		writeError(w, http.StatusServiceUnavailable, "not_loaded", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
