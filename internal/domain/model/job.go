// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Job asks for the recharge array of one stress period to be exported.
type Job struct {
	RunID  string // coupling run the job belongs to
	Period int    // zero-based stress period
}

// String identifies the job in logs.
func (j Job) String() string { return fmt.Sprintf("%s/%d", j.RunID, j.Period) }

// Result reports the outcome of one Job.
type Result struct {
	Job      Job
	Path     string // written file, empty on failure
	Err      error
	Duration time.Duration
}

// OK reports whether the job succeeded.
func (r Result) OK() bool { return r.Err == nil }
