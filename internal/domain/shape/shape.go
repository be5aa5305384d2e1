// Package shape pairs zone masks with their recharge series and loads them
// as one ordered batch.
//
// A batch is all-or-nothing: ReadShapes either returns every shape in input
// order or an error naming the first pair that failed.
package shape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/rchpass/internal/domain/grid"
	"github.com/okian/rchpass/internal/domain/series"
	"github.com/okian/rchpass/pkg/logger"
	"github.com/okian/rchpass/pkg/metrics"
)

// Pair names the storage locations of one zone.
type Pair struct {
	Mask   string
	Series string
	// Extra lists additional masks whose cells are unioned into the zone.
	Extra []string
}

// Info is a validated Pair. It is produced only by CreateShapeInfo.
type Info struct {
	Mask   string
	Series string
	Extra  []string
}

// Masks returns the primary mask location followed by the extra ones.
func (i Info) Masks() []string {
	return append([]string{i.Mask}, i.Extra...)
}

// Shape is one zone of a coupling run: its footprint on the grid and its
// recharge value per stress period. Its position in the shape list is its
// identity.
type Shape struct {
	Info   Info
	Mask   grid.Mask
	Series series.Series
}

// MaskLoader reads one mask.
type MaskLoader interface {
	Load(ctx context.Context, path string) (grid.Mask, error)
}

// SeriesParser reads one zone's simulator output.
type SeriesParser interface {
	ParseFile(ctx context.Context, path string) (series.Series, error)
}

// CreateShapeInfo validates and records pair locations without reading
// them. Blank locations and mask locations used twice are rejected.
// An empty pair list is valid and describes a run with no zones.
func CreateShapeInfo(pairs []Pair) ([]Info, error) {
	infos := make([]Info, 0, len(pairs))
	seen := make(map[string]int, len(pairs))
	for i, p := range pairs {
		if strings.TrimSpace(p.Mask) == "" {
			return nil, fmt.Errorf("%w: pair %d: missing mask location", ErrInvalidShapeInfo, i)
		}
		if strings.TrimSpace(p.Series) == "" {
			return nil, fmt.Errorf("%w: pair %d: missing series location", ErrInvalidShapeInfo, i)
		}
		info := Info{Mask: p.Mask, Series: p.Series, Extra: append([]string(nil), p.Extra...)}
		for _, m := range info.Masks() {
			if strings.TrimSpace(m) == "" {
				return nil, fmt.Errorf("%w: pair %d: blank extra mask location", ErrInvalidShapeInfo, i)
			}
			if prev, ok := seen[m]; ok {
				return nil, fmt.Errorf("%w: %w: %q in pairs %d and %d", ErrInvalidShapeInfo, ErrDuplicateMask, m, prev, i)
			}
			seen[m] = i
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Registry reads shape batches using the injected loader and parser.
// It keeps no state between calls.
type Registry struct {
	loader MaskLoader
	parser SeriesParser
	logger logger.Logger
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithLogger sets a custom logger for the registry.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry.
func NewRegistry(loader MaskLoader, parser SeriesParser, opts ...Option) *Registry {
	r := &Registry{
		loader: loader,
		parser: parser,
		logger: logger.Get().Named("shape"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadShapes loads every pair in input order. The first failure aborts the
// batch with a *PairError and no shapes are returned.
func (r *Registry) ReadShapes(ctx context.Context, infos []Info) ([]Shape, error) {
	shapes := make([]Shape, 0, len(infos))
	for i, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("read shapes: %w", err)
		}
		s, err := r.read(ctx, info)
		if err != nil {
			metrics.RecordLoadError(errorKind(err))
			r.logger.Error(ctx, "shape load failed",
				logger.Int("index", i),
				logger.String("mask", info.Mask),
				logger.String("series", info.Series),
				logger.Error(err),
			)
			return nil, &PairError{Index: i, Info: info, Err: err}
		}
		metrics.RecordShapeLoaded(s.Mask.Count(), s.Series.Len())
		r.logger.Debug(ctx, "shape loaded",
			logger.Int("index", i),
			logger.Int("cells", s.Mask.Count()),
			logger.Int("steps", s.Series.Len()),
		)
		shapes = append(shapes, s)
	}
	metrics.UpdateLoadedShapes(len(shapes))
	return shapes, nil
}

func (r *Registry) read(ctx context.Context, info Info) (Shape, error) {
	mask, err := r.loader.Load(ctx, info.Mask)
	if err != nil {
		return Shape{}, err
	}
	for _, extra := range info.Extra {
		m, err := r.loader.Load(ctx, extra)
		if err != nil {
			return Shape{}, err
		}
		u, err := mask.Or(m)
		if err != nil {
			return Shape{}, &grid.MaskDimensionError{Path: extra, Want: mask.Dims(), Got: m.Dims()}
		}
		mask = u
	}
	s, err := r.parser.ParseFile(ctx, info.Series)
	if err != nil {
		return Shape{}, err
	}
	return Shape{Info: info, Mask: mask, Series: s}, nil
}

// errorKind labels load failures for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, grid.ErrMaskFormat):
		return "mask_format"
	case errors.Is(err, grid.ErrMaskDimension):
		return "mask_dimension"
	case errors.Is(err, series.ErrSeriesFormat):
		return "series_format"
	default:
		return "other"
	}
}
