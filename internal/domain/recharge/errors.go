package recharge

import (
	"errors"
	"fmt"
)

// ErrStepOutOfRange is matched by every *StepOutOfRangeError.
var ErrStepOutOfRange = errors.New("stress period out of range")

// StepOutOfRangeError reports a stress period that some zone has no value for.
type StepOutOfRangeError struct {
	Model     string // groundwater model the array was requested for
	Period    int
	Shape     int // index of the first shape lacking the period; -1 for a negative period
	Available int // length of that shape's series
}

func (e *StepOutOfRangeError) Error() string {
	if e.Shape < 0 {
		return fmt.Sprintf("model %q: stress period %d is negative", e.Model, e.Period)
	}
	return fmt.Sprintf("model %q: stress period %d: shape %d has only %d steps", e.Model, e.Period, e.Shape, e.Available)
}

// Is matches ErrStepOutOfRange.
func (e *StepOutOfRangeError) Is(target error) bool { return target == ErrStepOutOfRange }
