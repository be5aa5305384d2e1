package grid_test

import (
	"errors"
	"testing"

	"github.com/okian/rchpass/internal/domain/grid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDescriptor(t *testing.T) {
	Convey("Given grid descriptors", t, func() {
		Convey("When both dimensions are positive", func() {
			d := grid.Descriptor{Rows: 10, Cols: 4}

			Convey("Then it validates and reports its cell count", func() {
				So(d.Validate(), ShouldBeNil)
				So(d.Cells(), ShouldEqual, 40)
				So(d.String(), ShouldEqual, "10x4")
			})
		})

		Convey("When a dimension is zero or negative", func() {
			for _, d := range []grid.Descriptor{{Rows: 0, Cols: 3}, {Rows: 3, Cols: -1}} {
				err := d.Validate()
				So(errors.Is(err, grid.ErrInvalidDescriptor), ShouldBeTrue)
			}
		})
	})
}

func TestMask(t *testing.T) {
	Convey("Given a mask built from rows", t, func() {
		m, err := grid.MaskFromRows([][]bool{
			{true, false, false},
			{false, false, true},
		})
		So(err, ShouldBeNil)

		Convey("Then it exposes its extent and cells", func() {
			So(m.Dims(), ShouldResemble, grid.Descriptor{Rows: 2, Cols: 3})
			So(m.At(0, 0), ShouldBeTrue)
			So(m.At(1, 2), ShouldBeTrue)
			So(m.At(1, 1), ShouldBeFalse)
			So(m.At(5, 5), ShouldBeFalse)
			So(m.Count(), ShouldEqual, 2)
			So(m.Empty(), ShouldBeFalse)
			So(m.String(), ShouldEqual, "#..\n..#\n")
		})

		Convey("Then Each visits selected cells in row-major order", func() {
			var got [][2]int
			m.Each(func(r, c int) { got = append(got, [2]int{r, c}) })
			So(got, ShouldResemble, [][2]int{{0, 0}, {1, 2}})
		})

		Convey("When unioned with another mask of the same extent", func() {
			o, err := grid.MaskFromCells(grid.Descriptor{Rows: 2, Cols: 3}, []bool{false, true, false, false, false, false})
			So(err, ShouldBeNil)
			u, err := m.Or(o)

			Convey("Then the union selects cells of both", func() {
				So(err, ShouldBeNil)
				So(u.String(), ShouldEqual, "##.\n..#\n")
				So(m.Count(), ShouldEqual, 2)
			})
		})

		Convey("When unioned with a mask of a different extent", func() {
			_, err := m.Or(grid.NewMask(grid.Descriptor{Rows: 3, Cols: 3}))
			So(errors.Is(err, grid.ErrMaskDimension), ShouldBeTrue)
		})

		Convey("When checked against a different descriptor", func() {
			err := grid.Descriptor{Rows: 10, Cols: 10}.Check("m.txt", m)
			var dimErr *grid.MaskDimensionError

			Convey("Then it reports a dimension error", func() {
				So(errors.As(err, &dimErr), ShouldBeTrue)
				So(dimErr.Got, ShouldResemble, grid.Descriptor{Rows: 2, Cols: 3})
				So(errors.Is(err, grid.ErrMaskDimension), ShouldBeTrue)
			})
		})
	})

	Convey("Given malformed mask input", t, func() {
		_, err := grid.MaskFromRows([][]bool{{true}, {true, false}})
		So(err, ShouldNotBeNil)
		_, err = grid.MaskFromRows(nil)
		So(err, ShouldNotBeNil)
		_, err = grid.MaskFromCells(grid.Descriptor{Rows: 2, Cols: 2}, []bool{true})
		So(err, ShouldNotBeNil)
	})

	Convey("Given an empty mask", t, func() {
		m := grid.NewMask(grid.Descriptor{Rows: 3, Cols: 3})
		So(m.Empty(), ShouldBeTrue)
		So(m.Count(), ShouldEqual, 0)
	})
}
