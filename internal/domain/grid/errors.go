package grid

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidDescriptor = errors.New("invalid grid descriptor")
	ErrMaskFormat        = errors.New("mask format error")
	ErrMaskDimension     = errors.New("mask dimension error")
)

// MaskFormatError reports a mask source that cannot be read as a
// rectangular boolean (or 0/1) array.
type MaskFormatError struct {
	Path string
	Line int // 1-based line of the offending content; 0 when not line oriented
	Err  error
}

func (e *MaskFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("mask %q: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("mask %q: %v", e.Path, e.Err)
}

func (e *MaskFormatError) Unwrap() error { return e.Err }

// Is matches ErrMaskFormat.
func (e *MaskFormatError) Is(target error) bool { return target == ErrMaskFormat }

// MaskDimensionError reports a mask whose extent differs from the run's grid.
type MaskDimensionError struct {
	Path string
	Want Descriptor
	Got  Descriptor
}

func (e *MaskDimensionError) Error() string {
	return fmt.Sprintf("mask %q: dimensions %s do not match grid %s", e.Path, e.Got, e.Want)
}

// Is matches ErrMaskDimension.
func (e *MaskDimensionError) Is(target error) bool { return target == ErrMaskDimension }
