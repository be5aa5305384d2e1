// Package run implements a command to export the recharge arrays of every
// stress period to MODFLOW array files.
package run

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/js-arias/command"
	"github.com/okian/rchpass/cmd/rchpass/boot"
	service "github.com/okian/rchpass/internal/app"
)

var Command = &command.Command{
	Usage: "run [--config <file>] [-o|--output <dir>] [--periods <number>]",
	Short: "export recharge arrays for every stress period",
	Long: `
Command run loads the zones of a coupling run and writes one MODFLOW
free-format array file per stress period, rch_<period>.txt, plus a
manifest.json listing them.

By default every period all zones can serve is exported. Use --periods to
export a fixed number of periods; periods a zone has no value for fail and
are reported.

By default the files are written to the configured output_dir. Use the flag
-o, or --output, to use another directory.
` + boot.ConfigUsage,
	SetFlags: setFlags,
	Run:      run,
}

var configFile string
var outDir string
var periods int

func setFlags(c *command.Command) {
	c.Flags().StringVar(&configFile, "config", "", "")
	c.Flags().StringVar(&outDir, "output", "", "")
	c.Flags().StringVar(&outDir, "o", "", "")
	c.Flags().IntVar(&periods, "periods", 0, "")
}

func run(c *command.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := boot.Config(ctx, configFile)
	if err != nil {
		return err
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	if periods > 0 {
		cfg.Periods = periods
	}

	svc := service.New(cfg)
	if err := svc.Load(ctx); err != nil {
		return err
	}
	m, err := svc.Export(ctx)
	for _, f := range m.Files {
		fmt.Fprintf(c.Stdout(), "%d\t%s\n", f.Period, f.Path)
	}
	return err
}
