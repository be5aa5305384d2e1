// Package render draws previews of a coupling run: a heat map of one
// period's recharge array and a line plot of the zone series.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/js-arias/blind"
	"gonum.org/v1/gonum/mat"
)

// Uncovered is the colour of cells no zone covers.
var Uncovered = color.RGBA{211, 211, 211, 255}

// Gradienter returns a colour for a value in [0, 1].
type Gradienter interface {
	Gradient(v float64) color.Color
}

// Iridescent is the iridescent colour scheme of Paul Tol.
type Iridescent struct{}

func (Iridescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Iridescent, clamp(v))
}

// Incandescent is the incandescent colour scheme of Paul Tol.
type Incandescent struct{}

func (Incandescent) Gradient(v float64) color.Color {
	return blind.Sequential(blind.Incandescent, clamp(v))
}

// Rainbow is the smooth rainbow scheme of Paul Tol, purple to red.
type Rainbow struct{}

func (Rainbow) Gradient(v float64) color.Color {
	return blind.Gradient(clamp(v))
}

// Palette returns the named gradient.
func Palette(name string) (Gradienter, error) {
	switch name {
	case "", "iridescent":
		return Iridescent{}, nil
	case "incandescent":
		return Incandescent{}, nil
	case "rainbow":
		return Rainbow{}, nil
	}
	return nil, fmt.Errorf("unknown palette %q", name)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Heatmap is an image of a recharge array. Each grid cell is a Scale×Scale
// block; row 0 is drawn at the top.
type Heatmap struct {
	values  mat.Matrix
	covered []bool // row-major; nil means every cell is coloured
	rows    int
	cols    int
	scale   int
	min     float64
	max     float64
	palette Gradienter
}

// NewHeatmap builds a heat map of a. winner holds, per row-major cell, the
// index of the covering zone or -1; cells with -1 are drawn gray. A nil
// winner colours every cell. The colour range spans the covered values.
func NewHeatmap(a mat.Matrix, winner []int, scale int, palette Gradienter) (*Heatmap, error) {
	rows, cols := a.Dims()
	if winner != nil && len(winner) != rows*cols {
		return nil, fmt.Errorf("coverage has %d cells, array has %d", len(winner), rows*cols)
	}
	if scale < 1 {
		scale = 1
	}
	if palette == nil {
		palette = Iridescent{}
	}
	h := &Heatmap{values: a, rows: rows, cols: cols, scale: scale, palette: palette}
	if winner != nil {
		h.covered = make([]bool, len(winner))
		for i, w := range winner {
			h.covered[i] = w >= 0
		}
	}

	first := true
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !h.isCovered(r, c) {
				continue
			}
			v := a.At(r, c)
			if first || v < h.min {
				h.min = v
			}
			if first || v > h.max {
				h.max = v
			}
			first = false
		}
	}
	return h, nil
}

func (h *Heatmap) isCovered(r, c int) bool {
	return h.covered == nil || h.covered[r*h.cols+c]
}

// Range returns the values mapped to the ends of the palette.
func (h *Heatmap) Range() (min, max float64) { return h.min, h.max }

func (h *Heatmap) ColorModel() color.Model { return color.RGBAModel }

func (h *Heatmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, h.cols*h.scale, h.rows*h.scale)
}

func (h *Heatmap) At(x, y int) color.Color {
	c, r := x/h.scale, y/h.scale
	if r < 0 || r >= h.rows || c < 0 || c >= h.cols {
		return color.RGBA{}
	}
	if !h.isCovered(r, c) {
		return Uncovered
	}
	if h.max == h.min {
		return h.palette.Gradient(0.5)
	}
	return h.palette.Gradient((h.values.At(r, c) - h.min) / (h.max - h.min))
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
