package render

import (
	"fmt"
	"io"

	"github.com/js-arias/blind"
	"github.com/okian/rchpass/internal/domain/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot size defaults.
const (
	DefaultPlotWidth  = 6 * vg.Inch
	DefaultPlotHeight = 4 * vg.Inch
)

// Line is one labelled series of a plot.
type Line struct {
	Label  string
	Series series.Series
}

// SeriesPlot builds a plot of recharge against simulated time, one line
// per zone in the given order.
func SeriesPlot(title string, lines []Line) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "recharge"
	p.Legend.Top = true

	for i, l := range lines {
		times, values := l.Series.Times(), l.Series.Values()
		pts := make(plotter.XYs, len(values))
		for j := range values {
			pts[j].X = times[j]
			pts[j].Y = values[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", l.Label, err)
		}
		line.LineStyle = plotter.DefaultLineStyle
		line.LineStyle.Color = blind.Sequential(blind.RainbowPurpleToRed, position(i, len(lines)))
		p.Add(line)
		p.Legend.Add(l.Label, line)
	}
	return p, nil
}

// position spreads n lines over the palette.
func position(i, n int) float64 {
	if n < 2 {
		return 0.5
	}
	return float64(i) / float64(n-1)
}

// WritePlot encodes p in the given format ("png", "svg", "pdf", ...).
func WritePlot(w io.Writer, p *plot.Plot, width, height vg.Length, format string) error {
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}
