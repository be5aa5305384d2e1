// Package series defines the per-step recharge values produced by one
// zone's soil-moisture simulation.
package series

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is an ordered sequence of recharge values, one per simulated time
// step, together with the simulated time of each step. A Series is never
// modified after construction.
type Series struct {
	times  []float64
	values []float64
}

// New builds a Series from parallel slices. The inputs are copied.
func New(times, values []float64) (Series, error) {
	if len(times) != len(values) {
		return Series{}, fmt.Errorf("%w: %d times, %d values", ErrLength, len(times), len(values))
	}
	s := Series{
		times:  make([]float64, len(times)),
		values: make([]float64, len(values)),
	}
	copy(s.times, times)
	copy(s.values, values)
	return s, nil
}

// FromValues builds a Series whose times are the step numbers 1..N.
func FromValues(values ...float64) Series {
	times := make([]float64, len(values))
	for i := range times {
		times[i] = float64(i + 1)
	}
	s, _ := New(times, values)
	return s
}

// Len returns the number of steps.
func (s Series) Len() int { return len(s.values) }

// At returns the value of step i.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s.values) {
		return 0, false
	}
	return s.values[i], true
}

// Time returns the simulated time of step i.
func (s Series) Time(i int) (float64, bool) {
	if i < 0 || i >= len(s.times) {
		return 0, false
	}
	return s.times[i], true
}

// Values returns a copy of the values.
func (s Series) Values() []float64 {
	v := make([]float64, len(s.values))
	copy(v, s.values)
	return v
}

// Times returns a copy of the step times.
func (s Series) Times() []float64 {
	t := make([]float64, len(s.times))
	copy(t, s.times)
	return t
}

// After drops the leading steps simulated at or before spinUp.
// A non-positive spinUp returns s unchanged.
func (s Series) After(spinUp float64) Series {
	if spinUp <= 0 {
		return s
	}
	i := 0
	for i < len(s.times) && s.times[i] <= spinUp {
		i++
	}
	out, _ := New(s.times[i:], s.values[i:])
	return out
}

// Stats summarises the values of a Series.
type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Sum   float64 `json:"sum"`
}

// Stats returns the summary; all fields are zero for an empty Series.
func (s Series) Stats() Stats {
	if len(s.values) == 0 {
		return Stats{}
	}
	return Stats{
		Count: len(s.values),
		Min:   floats.Min(s.values),
		Max:   floats.Max(s.values),
		Mean:  stat.Mean(s.values, nil),
		Sum:   floats.Sum(s.values),
	}
}
