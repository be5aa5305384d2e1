package shape_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/rchpass/internal/domain/grid"
	"github.com/okian/rchpass/internal/domain/series"
	"github.com/okian/rchpass/internal/domain/shape"
	. "github.com/smartystreets/goconvey/convey"
)

var desc = grid.Descriptor{Rows: 2, Cols: 2}

// Mock implementations for testing
type mockLoader struct {
	masks map[string]grid.Mask
	errs  map[string]error
	calls []string
}

func (m *mockLoader) Load(_ context.Context, path string) (grid.Mask, error) {
	m.calls = append(m.calls, path)
	if err, ok := m.errs[path]; ok {
		return grid.Mask{}, err
	}
	return m.masks[path], nil
}

type mockParser struct {
	series map[string]series.Series
	errs   map[string]error
}

func (m *mockParser) ParseFile(_ context.Context, path string) (series.Series, error) {
	if err, ok := m.errs[path]; ok {
		return series.Series{}, err
	}
	return m.series[path], nil
}

func mask(cells ...bool) grid.Mask {
	m, err := grid.MaskFromCells(desc, cells)
	if err != nil {
		panic(err)
	}
	return m
}

func TestCreateShapeInfo(t *testing.T) {
	Convey("Given pairs of mask and series locations", t, func() {
		Convey("When all locations are distinct", func() {
			infos, err := shape.CreateShapeInfo([]shape.Pair{
				{Mask: "m1.npy", Series: "h1/T_Level.out"},
				{Mask: "m2.npy", Series: "h2/T_Level.out", Extra: []string{"m3.npy"}},
			})

			Convey("Then they are recorded in input order", func() {
				So(err, ShouldBeNil)
				So(infos, ShouldHaveLength, 2)
				So(infos[0].Mask, ShouldEqual, "m1.npy")
				So(infos[1].Masks(), ShouldResemble, []string{"m2.npy", "m3.npy"})
			})
		})

		Convey("When a mask location is repeated", func() {
			_, err := shape.CreateShapeInfo([]shape.Pair{
				{Mask: "m1.npy", Series: "a"},
				{Mask: "m2.npy", Series: "b", Extra: []string{"m1.npy"}},
			})

			Convey("Then it fails fast", func() {
				So(errors.Is(err, shape.ErrDuplicateMask), ShouldBeTrue)
				So(errors.Is(err, shape.ErrInvalidShapeInfo), ShouldBeTrue)
			})
		})

		Convey("When a location is blank", func() {
			for _, p := range []shape.Pair{
				{Mask: "", Series: "a"},
				{Mask: "m", Series: "  "},
				{Mask: "m", Series: "a", Extra: []string{""}},
			} {
				_, err := shape.CreateShapeInfo([]shape.Pair{p})
				So(errors.Is(err, shape.ErrInvalidShapeInfo), ShouldBeTrue)
			}
		})

		Convey("When there are no pairs", func() {
			infos, err := shape.CreateShapeInfo(nil)
			So(err, ShouldBeNil)
			So(infos, ShouldBeEmpty)
		})
	})
}

func TestReadShapes(t *testing.T) {
	Convey("Given a registry backed by in-memory sources", t, func() {
		ctx := context.Background()
		loader := &mockLoader{
			masks: map[string]grid.Mask{
				"a": mask(true, false, false, false),
				"b": mask(false, true, false, false),
				"c": mask(false, false, false, true),
			},
			errs: map[string]error{},
		}
		parser := &mockParser{
			series: map[string]series.Series{
				"sa": series.FromValues(1, 2),
				"sb": series.FromValues(3),
			},
			errs: map[string]error{},
		}
		reg := shape.NewRegistry(loader, parser)

		Convey("When every pair reads", func() {
			infos, err := shape.CreateShapeInfo([]shape.Pair{
				{Mask: "a", Series: "sa"},
				{Mask: "b", Series: "sb", Extra: []string{"c"}},
			})
			So(err, ShouldBeNil)
			shapes, err := reg.ReadShapes(ctx, infos)

			Convey("Then shapes come back in input order", func() {
				So(err, ShouldBeNil)
				So(shapes, ShouldHaveLength, 2)
				So(shapes[0].Series.Len(), ShouldEqual, 2)
				So(shapes[1].Info.Mask, ShouldEqual, "b")
				So(loader.calls, ShouldResemble, []string{"a", "b", "c"})
			})

			Convey("Then extra masks are unioned into the zone", func() {
				So(shapes[1].Mask.String(), ShouldEqual, ".#\n.#\n")
			})
		})

		Convey("When a mask has the wrong format", func() {
			loader.errs["b"] = &grid.MaskFormatError{Path: "b", Err: errors.New("bad cell")}
			infos, _ := shape.CreateShapeInfo([]shape.Pair{
				{Mask: "a", Series: "sa"},
				{Mask: "b", Series: "sb"},
			})
			shapes, err := reg.ReadShapes(ctx, infos)

			Convey("Then the whole batch fails naming the pair", func() {
				So(shapes, ShouldBeNil)
				var pe *shape.PairError
				So(errors.As(err, &pe), ShouldBeTrue)
				So(pe.Index, ShouldEqual, 1)
				So(errors.Is(err, grid.ErrMaskFormat), ShouldBeTrue)
			})
		})

		Convey("When a series is malformed", func() {
			parser.errs["sa"] = &series.FormatError{Path: "sa", Line: 3, Err: errors.New("not a number")}
			infos, _ := shape.CreateShapeInfo([]shape.Pair{{Mask: "a", Series: "sa"}})
			_, err := reg.ReadShapes(ctx, infos)

			Convey("Then the series error is reported through the pair error", func() {
				So(errors.Is(err, series.ErrSeriesFormat), ShouldBeTrue)
				var fe *series.FormatError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Line, ShouldEqual, 3)
			})
		})

		Convey("When an extra mask has a different extent", func() {
			loader.masks["big"] = grid.NewMask(grid.Descriptor{Rows: 3, Cols: 3})
			infos, _ := shape.CreateShapeInfo([]shape.Pair{{Mask: "a", Series: "sa", Extra: []string{"big"}}})
			_, err := reg.ReadShapes(ctx, infos)
			So(errors.Is(err, grid.ErrMaskDimension), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			infos, _ := shape.CreateShapeInfo([]shape.Pair{{Mask: "a", Series: "sa"}})
			_, err := reg.ReadShapes(cctx, infos)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
