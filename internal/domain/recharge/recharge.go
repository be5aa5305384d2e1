// Package recharge composes the per-stress-period recharge array handed to
// the groundwater model.
//
// A Builder is read-only after construction. UpdateRCH allocates a fresh
// array on every call and may be called concurrently.
package recharge

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rchpass/internal/domain/grid"
	"github.com/okian/rchpass/internal/domain/shape"
	"github.com/okian/rchpass/pkg/logger"
	"github.com/okian/rchpass/pkg/metrics"
	"gonum.org/v1/gonum/mat"
)

// Builder overlays zone values onto the grid.
type Builder struct {
	desc   grid.Descriptor
	shapes []shape.Shape
	model  string
	logger logger.Logger
}

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithModel names the groundwater model the arrays are built for. It is
// used only in errors and logs.
func WithModel(name string) Option {
	return func(b *Builder) {
		b.model = name
	}
}

// WithLogger sets a custom logger for the builder.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Builder over desc. Shapes are applied in slice order and
// every mask must match desc.
func New(desc grid.Descriptor, shapes []shape.Shape, opts ...Option) (*Builder, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	for _, s := range shapes {
		if err := desc.Check(s.Info.Mask, s.Mask); err != nil {
			return nil, err
		}
	}
	b := &Builder{
		desc:   desc,
		shapes: append([]shape.Shape(nil), shapes...),
		logger: logger.Get().Named("recharge"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Descriptor returns the grid extent.
func (b *Builder) Descriptor() grid.Descriptor { return b.desc }

// Model returns the groundwater model name.
func (b *Builder) Model() string { return b.model }

// Shapes returns a copy of the shape list in registry order.
func (b *Builder) Shapes() []shape.Shape { return append([]shape.Shape(nil), b.shapes...) }

// UpdateRCH returns the recharge array for stress period p. Each selected
// cell receives the value of the last shape, in registry order, whose mask
// covers it; every other cell is zero.
func (b *Builder) UpdateRCH(p int) (*mat.Dense, error) {
	start := time.Now()
	if err := b.check(p); err != nil {
		metrics.RecordStepOutOfRange()
		return nil, err
	}

	rch := mat.NewDense(b.desc.Rows, b.desc.Cols, nil)
	for i, s := range b.shapes {
		v, ok := s.Series.At(p)
		if !ok {
			metrics.RecordStepOutOfRange()
			return nil, &StepOutOfRangeError{Model: b.model, Period: p, Shape: i, Available: s.Series.Len()}
		}
		s.Mask.Each(func(r, c int) {
			rch.Set(r, c, v)
		})
	}

	metrics.RecordComposition(float64(time.Since(start).Microseconds()) / 1e3)
	return rch, nil
}

func (b *Builder) check(p int) error {
	if p < 0 {
		return &StepOutOfRangeError{Model: b.model, Period: p, Shape: -1}
	}
	for i, s := range b.shapes {
		if p >= s.Series.Len() {
			return &StepOutOfRangeError{Model: b.model, Period: p, Shape: i, Available: s.Series.Len()}
		}
	}
	return nil
}

// Periods returns how many stress periods every zone has values for.
// bounded is false when there are no shapes, in which case any
// non-negative period yields an all-zero array.
func (b *Builder) Periods() (n int, bounded bool) {
	if len(b.shapes) == 0 {
		return 0, false
	}
	n = b.shapes[0].Series.Len()
	for _, s := range b.shapes[1:] {
		if l := s.Series.Len(); l < n {
			n = l
		}
	}
	return n, true
}

// Coverage reports which shape wins each cell.
type Coverage struct {
	// Winner holds, row-major, the index of the shape whose value a cell
	// receives, or -1 for uncovered cells.
	Winner []int
	// Covered is the number of cells claimed by at least one shape.
	Covered int
	// Overlaps is the number of cells claimed by more than one shape.
	Overlaps int
}

// Coverage computes the winning shape of every cell.
func (b *Builder) Coverage() Coverage {
	cv := Coverage{Winner: make([]int, b.desc.Cells())}
	claims := make([]int, b.desc.Cells())
	for i := range cv.Winner {
		cv.Winner[i] = -1
	}
	for i, s := range b.shapes {
		s.Mask.Each(func(r, c int) {
			k := r*b.desc.Cols + c
			cv.Winner[k] = i
			claims[k]++
		})
	}
	for _, n := range claims {
		if n > 0 {
			cv.Covered++
		}
		if n > 1 {
			cv.Overlaps++
		}
	}
	return cv
}

// Summary logs the shape list and its coverage.
func (b *Builder) Summary(ctx context.Context) {
	cv := b.Coverage()
	n, bounded := b.Periods()
	periods := "unbounded"
	if bounded {
		periods = fmt.Sprint(n)
	}
	b.logger.Info(ctx, "recharge builder ready",
		logger.String("model", b.model),
		logger.String("grid", b.desc.String()),
		logger.Int("shapes", len(b.shapes)),
		logger.Int("covered", cv.Covered),
		logger.Int("overlaps", cv.Overlaps),
		logger.String("periods", periods),
	)
	if cv.Overlaps > 0 {
		b.logger.Warn(ctx, "zone masks overlap; later shapes take precedence", logger.Int("cells", cv.Overlaps))
	}
}
