// Package api serves the HTTP read API of a coupling run: the recharge
// array of a stress period for the external driver, plus run summaries.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/rchpass/internal/adapters/http/swagger"
	"github.com/okian/rchpass/internal/domain/types"
	"github.com/okian/rchpass/pkg/logger"
	"gonum.org/v1/gonum/mat"
)

// Dependencies required by HTTP handlers. Reads before a run is loaded
// return errors matching types.ErrNotLoaded.
type Dependencies interface {
	Recharge(ctx context.Context, period int) (*mat.Dense, error)
	Coverage(ctx context.Context) ([]int, error)
	Stats(ctx context.Context) (types.RunStats, error)
	Shapes(ctx context.Context) ([]types.ShapeSummary, error)
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	shapesHandler   *ShapesHandler
	rechargeHandler *RechargeHandler
	logger          logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		shapesHandler:   NewShapesHandler(deps),
		rechargeHandler: NewRechargeHandler(deps),
		logger:          logger.Get().Named("api"),
	}
}

// Router returns the chi router with every route attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(s.logger))
	swagger.Register(r)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/shapes", MetricsMiddleware(s.shapesHandler.HandleShapes, "shapes"))
	r.Route("/recharge/{period}", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.rechargeHandler.HandleGetRecharge, "recharge"))
		r.Get("/png", MetricsMiddleware(s.rechargeHandler.HandleGetPNG, "recharge_png"))
	})
	return r
}

// RechargeResponse is the JSON body of GET /recharge/{period}.
type RechargeResponse struct {
	Period int         `json:"period"`
	Rows   int         `json:"rows"`
	Cols   int         `json:"cols"`
	Values [][]float64 `json:"values"`
}

// NewRechargeResponse copies a into row slices.
func NewRechargeResponse(period int, a mat.Matrix) RechargeResponse {
	rows, cols := a.Dims()
	out := RechargeResponse{Period: period, Rows: rows, Cols: cols, Values: make([][]float64, rows)}
	for i := range out.Values {
		out.Values[i] = mat.Row(nil, i, a)
	}
	return out
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
