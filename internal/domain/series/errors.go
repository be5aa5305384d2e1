package series

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrSeriesFormat = errors.New("series format error")
	ErrLength       = errors.New("times and values differ in length")
)

// FormatError reports a malformed or truncated simulator output table.
type FormatError struct {
	Path string
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("series %q: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("series %q: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is matches ErrSeriesFormat.
func (e *FormatError) Is(target error) bool { return target == ErrSeriesFormat }
