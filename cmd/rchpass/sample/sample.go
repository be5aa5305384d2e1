// Package sample implements a command to write the reference coupling data
// set.
package sample

import (
	"context"
	"fmt"

	"github.com/js-arias/command"
	"github.com/okian/rchpass/cmd/rchpass/boot"
	"github.com/okian/rchpass/internal/samples"
)

var Command = &command.Command{
	Usage: "sample [--format <mask-format>] <dir>",
	Short: "write the reference four-zone data set",
	Long: `
Command sample writes the reference data set into the given directory: four
zone masks on a 10x10 grid, a HYDRUS-1D T_Level.out table with twelve steps
per zone, and an rchpass.yaml configuration naming them.

The masks are written as NumPy arrays by default; use --format with npy,
json or txt to choose another encoding.

Run the other commands with --config <dir>/rchpass.yaml to use it.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var format string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&format, "format", samples.FormatNPY, "")
}

func run(c *command.Command, args []string) error {
	if len(args) < 1 {
		return c.UsageError("expecting output directory")
	}
	switch format {
	case samples.FormatNPY, samples.FormatJSON, samples.FormatText:
	default:
		return c.UsageError(fmt.Sprintf("unknown mask format %q", format))
	}
	if err := boot.Logging("text", "info"); err != nil {
		return err
	}

	files, err := samples.Write(context.Background(), args[0], samples.Reference(), format)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Stdout(), "%s\n", files.Config)
	return nil
}
