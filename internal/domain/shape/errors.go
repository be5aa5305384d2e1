package shape

import (
	"errors"
	"fmt"
)

// Sentinel kinds for shape registry errors.
var (
	ErrInvalidShapeInfo = errors.New("invalid shape info")
	ErrDuplicateMask    = errors.New("mask location used more than once")
)

// PairError identifies the mask/series pair that aborted ReadShapes.
// Err is the underlying MaskFormatError, MaskDimensionError or
// SeriesFormatError.
type PairError struct {
	Index int
	Info  Info
	Err   error
}

func (e *PairError) Error() string {
	return fmt.Sprintf("shape %d (mask %q, series %q): %v", e.Index, e.Info.Mask, e.Info.Series, e.Err)
}

func (e *PairError) Unwrap() error { return e.Err }
