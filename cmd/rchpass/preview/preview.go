// Package preview implements a command to draw the recharge array of a
// stress period as a PNG heat map.
package preview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/js-arias/command"
	"github.com/okian/rchpass/cmd/rchpass/boot"
	"github.com/okian/rchpass/internal/adapters/render"
	service "github.com/okian/rchpass/internal/app"
)

var Command = &command.Command{
	Usage: `preview [--config <file>] [--period <number>]
	[--scale <pixels>] [--palette <name>]
	[--plot <file>]
	[-o|--output <file>]`,
	Short: "draw a recharge array as a heat map",
	Long: `
Command preview loads the zones of a coupling run and draws the recharge
array of one stress period as a PNG image. Uncovered cells are drawn in
gray.

By default stress period 0 is drawn. Use --period to draw another one.

By default each cell is drawn as a 16 pixel square; use --scale to change
it. The palette is one of iridescent (default), incandescent or rainbow.

By default the image is written to rch_<period>.png. Use the flag -o, or
--output, to define a different file name.

If --plot is given, the recharge series of every zone are plotted into that
file; the format is taken from the extension (png, svg or pdf).
` + boot.ConfigUsage,
	SetFlags: setFlags,
	Run:      run,
}

var configFile string
var period int
var scale int
var paletteName string
var plotFile string
var output string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&configFile, "config", "", "")
	c.Flags().IntVar(&period, "period", 0, "")
	c.Flags().IntVar(&scale, "scale", 16, "")
	c.Flags().StringVar(&paletteName, "palette", "", "")
	c.Flags().StringVar(&plotFile, "plot", "", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if scale < 1 {
		return c.UsageError("flag --scale must be positive")
	}
	palette, err := render.Palette(paletteName)
	if err != nil {
		return c.UsageError(err.Error())
	}

	ctx := context.Background()
	cfg, err := boot.Config(ctx, configFile)
	if err != nil {
		return err
	}
	svc := service.New(cfg)
	if err := svc.Load(ctx); err != nil {
		return err
	}

	a, err := svc.Recharge(ctx, period)
	if err != nil {
		return err
	}
	winner, err := svc.Coverage(ctx)
	if err != nil {
		return err
	}
	img, err := render.NewHeatmap(a, winner, scale, palette)
	if err != nil {
		return err
	}
	if output == "" {
		output = fmt.Sprintf("rch_%d.png", period)
	}
	if err := writeFile(output, func(f *os.File) error { return render.WritePNG(f, img) }); err != nil {
		return err
	}
	lo, hi := img.Range()
	fmt.Fprintf(c.Stdout(), "%s: period %d, values %.4f to %.4f\n", output, period, lo, hi)

	if plotFile == "" {
		return nil
	}
	b, err := svc.Builder()
	if err != nil {
		return err
	}
	var lines []render.Line
	for i, s := range b.Shapes() {
		name := strings.TrimSuffix(filepath.Base(s.Info.Mask), filepath.Ext(s.Info.Mask))
		lines = append(lines, render.Line{Label: fmt.Sprintf("%d %s", i, name), Series: s.Series})
	}
	p, err := render.SeriesPlot(cfg.ModelName, lines)
	if err != nil {
		return err
	}
	format := strings.TrimPrefix(filepath.Ext(plotFile), ".")
	if format == "" {
		format = "png"
	}
	return writeFile(plotFile, func(f *os.File) error {
		return render.WritePlot(f, p, render.DefaultPlotWidth, render.DefaultPlotHeight, format)
	})
}

func writeFile(name string, fn func(*os.File) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()
	return fn(f)
}
