package render_test

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/okian/rchpass/internal/adapters/render"
	"github.com/okian/rchpass/internal/domain/series"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func TestHeatmap(t *testing.T) {
	Convey("Given a 2x3 array with one uncovered cell", t, func() {
		a := mat.NewDense(2, 3, []float64{0, -1, -2, -3, -4, -5})
		winner := []int{-1, 0, 0, 1, 1, 1}

		Convey("When a heat map is built at scale 4", func() {
			h, err := render.NewHeatmap(a, winner, 4, render.Iridescent{})
			So(err, ShouldBeNil)

			Convey("Then the image covers every cell block", func() {
				So(h.Bounds().Dx(), ShouldEqual, 12)
				So(h.Bounds().Dy(), ShouldEqual, 8)
			})

			Convey("Then the colour range ignores uncovered cells", func() {
				lo, hi := h.Range()
				So(lo, ShouldEqual, -5)
				So(hi, ShouldEqual, -1)
			})

			Convey("Then uncovered cells are gray and the ends of the range differ", func() {
				So(h.At(0, 0), ShouldResemble, render.Uncovered)
				So(h.At(3, 3), ShouldResemble, render.Uncovered)
				So(h.At(4, 0), ShouldNotResemble, h.At(8, 4))
				So(h.At(4, 0), ShouldResemble, render.Iridescent{}.Gradient(1))
			})

			Convey("Then it encodes as a PNG of the same size", func() {
				var buf bytes.Buffer
				So(render.WritePNG(&buf, h), ShouldBeNil)
				img, err := png.Decode(&buf)
				So(err, ShouldBeNil)
				So(img.Bounds(), ShouldResemble, h.Bounds())
			})
		})

		Convey("When the coverage size is wrong", func() {
			_, err := render.NewHeatmap(a, []int{0}, 1, nil)

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a constant array without coverage", t, func() {
		h, err := render.NewHeatmap(mat.NewDense(1, 2, []float64{3, 3}), nil, 0, nil)
		So(err, ShouldBeNil)

		Convey("Then every cell takes the middle colour", func() {
			So(h.At(0, 0), ShouldResemble, render.Iridescent{}.Gradient(0.5))
			So(h.At(1, 0), ShouldResemble, h.At(0, 0))
			So(h.At(5, 5), ShouldResemble, color.RGBA{})
		})
	})
}

func TestPalette(t *testing.T) {
	Convey("Given palette names", t, func() {
		for _, name := range []string{"", "iridescent", "incandescent", "rainbow"} {
			p, err := render.Palette(name)
			So(err, ShouldBeNil)
			So(p.Gradient(2), ShouldResemble, p.Gradient(1))
		}
		_, err := render.Palette("sepia")
		So(err, ShouldNotBeNil)
	})
}

func TestSeriesPlot(t *testing.T) {
	Convey("Given two zone series", t, func() {
		s1, _ := series.New([]float64{1, 2, 3}, []float64{-2.7, -2.8, -3.1})
		s2 := series.FromValues(-5.9, -5.8, -5.7)

		Convey("When they are plotted", func() {
			p, err := render.SeriesPlot("zones", []render.Line{{Label: "zone 1", Series: s1}, {Label: "zone 2", Series: s2}})
			So(err, ShouldBeNil)

			Convey("Then the axes span the data", func() {
				So(p.X.Min, ShouldEqual, 1)
				So(p.X.Max, ShouldEqual, 3)
				So(p.Y.Min, ShouldAlmostEqual, -5.9, 1e-12)
				So(p.Y.Max, ShouldAlmostEqual, -2.7, 1e-12)
			})

			Convey("Then it renders as PNG", func() {
				var buf bytes.Buffer
				So(render.WritePlot(&buf, p, render.DefaultPlotWidth, render.DefaultPlotHeight, "png"), ShouldBeNil)
				_, err := png.Decode(&buf)
				So(err, ShouldBeNil)
			})

			Convey("Then an unknown format is rejected", func() {
				var buf bytes.Buffer
				So(render.WritePlot(&buf, p, render.DefaultPlotWidth, render.DefaultPlotHeight, "bmp"), ShouldNotBeNil)
			})
		})
	})
}
