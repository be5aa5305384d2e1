// Package shapes implements a command to print the zones of a coupling run.
package shapes

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/js-arias/command"
	"github.com/okian/rchpass/cmd/rchpass/boot"
	service "github.com/okian/rchpass/internal/app"
)

var Command = &command.Command{
	Usage: "shapes [--config <file>]",
	Short: "print the zones of a coupling run",
	Long: `
Command shapes loads the zones of a coupling run and prints, in registration
order, the zone index, the number of covered cells, the number of steps of
its series with their minimum, maximum and mean, and the mask and series
files.

Later zones take precedence over earlier ones on shared cells; the number of
such cells is printed at the end.
` + boot.ConfigUsage,
	SetFlags: setFlags,
	Run:      run,
}

var configFile string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&configFile, "config", "", "")
}

func run(c *command.Command, args []string) error {
	ctx := context.Background()
	cfg, err := boot.Config(ctx, configFile)
	if err != nil {
		return err
	}
	svc := service.New(cfg)
	if err := svc.Load(ctx); err != nil {
		return err
	}
	ls, err := svc.Shapes(ctx)
	if err != nil {
		return err
	}
	st, err := svc.Stats(ctx)
	if err != nil {
		return err
	}

	tab := tabwriter.NewWriter(c.Stdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tab, "index\tcells\tsteps\tmin\tmax\tmean\tmask\tseries\n")
	for _, s := range ls {
		fmt.Fprintf(tab, "%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%s\t%s\n",
			s.Index, s.Cells, s.Stats.Count, s.Stats.Min, s.Stats.Max, s.Stats.Mean, s.Mask, s.Series)
	}
	if err := tab.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "grid %dx%d, %d covered cells, %d overlapping, %d periods\n",
		st.Rows, st.Cols, st.Covered, st.Overlaps, st.Periods)
	return nil
}
