// Package service holds the coupling run: it loads zones from the
// configuration, serves recharge arrays to the HTTP API and exports them
// through the worker pool.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rchpass/internal/adapters/hydrus"
	"github.com/okian/rchpass/internal/adapters/maskio"
	"github.com/okian/rchpass/internal/config"
	"github.com/okian/rchpass/internal/domain/grid"
	"github.com/okian/rchpass/internal/domain/recharge"
	"github.com/okian/rchpass/internal/domain/shape"
	"github.com/okian/rchpass/internal/domain/types"
	"github.com/okian/rchpass/pkg/logger"
	"gonum.org/v1/gonum/mat"
)

// run is one loaded coupling run. It is never mutated after Load.
type run struct {
	id       string
	builder  *recharge.Builder
	coverage recharge.Coverage
	loadedAt time.Time
}

// Service implements the API dependencies for the coupling.
type Service struct {
	mu  sync.RWMutex
	cur *run

	cfg    *config.Config
	logger logger.Logger

	// loader and parser default to the file adapters built from cfg.
	loader shape.MaskLoader
	parser shape.SeriesParser
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaskLoader replaces the mask file loader.
func WithMaskLoader(l shape.MaskLoader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithSeriesParser replaces the T_Level.out parser.
func WithSeriesParser(p shape.SeriesParser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// New constructs a Service over cfg. Nothing is read until Load.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		logger: logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = maskio.NewLoader(s.descriptor())
	}
	if s.parser == nil {
		s.parser = hydrus.NewParser(
			hydrus.WithColumn(cfg.SeriesColumn),
			hydrus.WithMaxHeaderLines(cfg.SeriesMaxHeaderLines),
			hydrus.WithTransform(hydrus.Transform{Scale: cfg.SeriesScale, Offset: cfg.SeriesOffset}),
			hydrus.WithSpinUp(cfg.SpinUp),
		)
	}
	return s
}

func (s *Service) descriptor() grid.Descriptor {
	return grid.Descriptor{Rows: s.cfg.Rows, Cols: s.cfg.Cols}
}

// Load reads every configured zone and replaces the current run. On error
// the previous run, if any, stays in place.
func (s *Service) Load(ctx context.Context) error {
	pairs := make([]shape.Pair, len(s.cfg.Shapes))
	for i, sc := range s.cfg.Shapes {
		pairs[i] = shape.Pair{Mask: sc.Mask, Series: sc.Series, Extra: sc.Extra}
	}
	infos, err := shape.CreateShapeInfo(pairs)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	shapes, err := shape.NewRegistry(s.loader, s.parser).ReadShapes(ctx, infos)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	b, err := recharge.New(s.descriptor(), shapes, recharge.WithModel(s.cfg.ModelName))
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}

	r := &run{
		id:       uuid.New().String(),
		builder:  b,
		coverage: b.Coverage(),
		loadedAt: time.Now().UTC(),
	}
	b.Summary(ctx)

	s.mu.Lock()
	s.cur = r
	s.mu.Unlock()

	s.logger.Info(ctx, "coupling run loaded",
		logger.String("run_id", r.id),
		logger.Int("shapes", len(shapes)),
	)
	return nil
}

func (s *Service) current() (*run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil, types.ErrNotLoaded
	}
	return s.cur, nil
}

// Builder returns the recharge builder of the current run.
func (s *Service) Builder() (*recharge.Builder, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	return r.builder, nil
}

// RunID returns the id of the current run, or "" before Load.
func (s *Service) RunID() string {
	r, err := s.current()
	if err != nil {
		return ""
	}
	return r.id
}

// Recharge composes the array of stress period p.
func (s *Service) Recharge(_ context.Context, period int) (*mat.Dense, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	return r.builder.UpdateRCH(period)
}

// Coverage returns the winning shape of every cell, row-major.
func (s *Service) Coverage(_ context.Context) ([]int, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	return append([]int(nil), r.coverage.Winner...), nil
}

// Stats summarises the current run.
func (s *Service) Stats(_ context.Context) (types.RunStats, error) {
	r, err := s.current()
	if err != nil {
		return types.RunStats{}, err
	}
	d := r.builder.Descriptor()
	n, bounded := r.builder.Periods()
	return types.RunStats{
		RunID:    r.id,
		Model:    r.builder.Model(),
		Rows:     d.Rows,
		Cols:     d.Cols,
		Shapes:   len(r.builder.Shapes()),
		Periods:  n,
		Bounded:  bounded,
		Covered:  r.coverage.Covered,
		Overlaps: r.coverage.Overlaps,
		LoadedAt: r.loadedAt.Format(time.RFC3339),
	}, nil
}

// Shapes lists the zones of the current run in registration order.
func (s *Service) Shapes(_ context.Context) ([]types.ShapeSummary, error) {
	r, err := s.current()
	if err != nil {
		return nil, err
	}
	shapes := r.builder.Shapes()
	out := make([]types.ShapeSummary, len(shapes))
	for i, sh := range shapes {
		out[i] = types.ShapeSummary{
			Index:  i,
			Mask:   sh.Info.Mask,
			Extra:  sh.Info.Extra,
			Series: sh.Info.Series,
			Cells:  sh.Mask.Count(),
			Stats:  sh.Series.Stats(),
		}
	}
	return out, nil
}
