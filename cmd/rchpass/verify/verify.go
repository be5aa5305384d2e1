// Package verify implements a command to check a running server against
// the reference data set.
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/js-arias/command"
	"github.com/okian/rchpass/cmd/rchpass/boot"
	"github.com/okian/rchpass/internal/samples"
)

var Command = &command.Command{
	Usage: "verify [--url <base-url>] [--workers <number>] [--timeout <duration>]",
	Short: "check a server loaded with the sample data set",
	Long: `
Command verify requests every stress period of the reference data set from a
server started with "rchpass serve" over the output of "rchpass sample", and
compares each array with the expected one. The first period past the data
must be answered with 404.

By default the server is expected at http://localhost:9080; use --url to
change it. Requests run on 4 workers with a 10s timeout by default.

Mismatches are printed and the command fails if any check failed.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var baseURL string
var workers int
var timeout time.Duration

func setFlags(c *command.Command) {
	c.Flags().StringVar(&baseURL, "url", "http://localhost:9080", "")
	c.Flags().IntVar(&workers, "workers", samples.DefaultWorkers, "")
	c.Flags().DurationVar(&timeout, "timeout", samples.DefaultTimeout, "")
}

func run(c *command.Command, args []string) error {
	if err := boot.Logging("text", "info"); err != nil {
		return err
	}
	rep, err := samples.Verify(context.Background(), samples.VerifyConfig{
		BaseURL: baseURL,
		Timeout: timeout,
		Workers: workers,
	}, samples.Reference())
	if err != nil {
		return err
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(c.Stdout(), "%s\n", f)
	}
	fmt.Fprintf(c.Stdout(), "checked %d periods, %d mismatched\n", rep.Checked, rep.Mismatched)
	if !rep.OK() {
		return fmt.Errorf("verification failed")
	}
	return nil
}
