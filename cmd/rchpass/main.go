// Rchpass passes HYDRUS-1D recharge fluxes to a MODFLOW grid: it paints
// zone masks with their per-period values and serves or exports the
// resulting recharge arrays.
package main

import (
	"github.com/js-arias/command"
	"github.com/okian/rchpass/cmd/rchpass/preview"
	"github.com/okian/rchpass/cmd/rchpass/run"
	"github.com/okian/rchpass/cmd/rchpass/sample"
	"github.com/okian/rchpass/cmd/rchpass/serve"
	"github.com/okian/rchpass/cmd/rchpass/shapes"
	"github.com/okian/rchpass/cmd/rchpass/verify"
)

var app = &command.Command{
	Usage: "rchpass <command> [<argument>...]",
	Short: "a coupling of HYDRUS-1D recharge into MODFLOW arrays",
}

func init() {
	app.Add(preview.Command)
	app.Add(run.Command)
	app.Add(sample.Command)
	app.Add(serve.Command)
	app.Add(shapes.Command)
	app.Add(verify.Command)
}

func main() {
	app.Main()
}
