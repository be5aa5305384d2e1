package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/rchpass/internal/adapters/rchfile"
	"github.com/okian/rchpass/internal/adapters/render"
	"github.com/okian/rchpass/internal/domain/recharge"
	"gonum.org/v1/gonum/mat"
)

// Preview limits.
const (
	defaultPNGScale = 16
	maxPNGScale     = 64
)

// RechargeDependencies composes arrays for the handler.
type RechargeDependencies interface {
	Recharge(ctx context.Context, period int) (*mat.Dense, error)
	Coverage(ctx context.Context) ([]int, error)
}

// RechargeHandler handles recharge array requests.
type RechargeHandler struct {
	deps RechargeDependencies
}

// NewRechargeHandler creates a new recharge handler.
func NewRechargeHandler(deps RechargeDependencies) *RechargeHandler {
	return &RechargeHandler{deps: deps}
}

// HandleGetRecharge handles GET /recharge/{period}. The body is JSON, or the
// MODFLOW free-format array with ?format=modflow.
func (h *RechargeHandler) HandleGetRecharge(w http.ResponseWriter, r *http.Request) {
	period, a, ok := h.compose(w, r)
	if !ok {
		return
	}
	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, NewRechargeResponse(period, a))
	case "modflow":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = rchfile.WriteArray(w, a, true)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: unknown format", ErrBadRequest))
	}
}

// HandleGetPNG handles GET /recharge/{period}/png with a heat map of the
// array; ?scale= sets the pixels per cell.
func (h *RechargeHandler) HandleGetPNG(w http.ResponseWriter, r *http.Request) {
	scale := defaultPNGScale
	if s := r.URL.Query().Get("scale"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > maxPNGScale {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: scale must be 1..%d", ErrBadRequest, maxPNGScale))
			return
		}
		scale = v
	}
	palette, err := render.Palette(r.URL.Query().Get("palette"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	_, a, ok := h.compose(w, r)
	if !ok {
		return
	}
	winner, err := h.deps.Coverage(r.Context())
	if err != nil {
		writeReadError(w, err)
		return
	}
	img, err := render.NewHeatmap(a, winner, scale, palette)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_ = render.WritePNG(w, img)
}

// compose parses the period and builds its array, writing the error
// response itself when it fails.
func (h *RechargeHandler) compose(w http.ResponseWriter, r *http.Request) (int, *mat.Dense, bool) {
	period, err := strconv.Atoi(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: period must be an integer", ErrBadRequest))
		return 0, nil, false
	}
	a, err := h.deps.Recharge(r.Context(), period)
	if err != nil {
		if errors.Is(err, recharge.ErrStepOutOfRange) {
			writeError(w, http.StatusNotFound, "step_out_of_range", err)
			return 0, nil, false
		}
		writeReadError(w, err)
		return 0, nil, false
	}
	return period, a, true
}
