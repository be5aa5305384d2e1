// Package grid holds the groundwater grid extent and the boolean zone masks
// laid over it.
package grid

import (
	"fmt"
	"strings"
)

// Descriptor is the row/column extent shared by every mask and every
// composed recharge array of one coupling run.
type Descriptor struct {
	Rows int
	Cols int
}

// Validate reports whether both dimensions are positive.
func (d Descriptor) Validate() error {
	if d.Rows <= 0 || d.Cols <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDescriptor, d)
	}
	return nil
}

// Cells returns rows*cols.
func (d Descriptor) Cells() int { return d.Rows * d.Cols }

func (d Descriptor) String() string { return fmt.Sprintf("%dx%d", d.Rows, d.Cols) }

// Mask is a rows×cols boolean footprint of one zone, stored row-major.
// The zero Mask has no cells.
type Mask struct {
	rows, cols int
	cells      []bool
}

// NewMask returns an all-false mask of the given extent.
func NewMask(d Descriptor) Mask {
	return Mask{rows: d.Rows, cols: d.Cols, cells: make([]bool, d.Cells())}
}

// MaskFromRows builds a mask from rectangular rows; the input is copied.
func MaskFromRows(rows [][]bool) (Mask, error) {
	if len(rows) == 0 {
		return Mask{}, fmt.Errorf("no rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return Mask{}, fmt.Errorf("no columns")
	}
	m := Mask{rows: len(rows), cols: cols, cells: make([]bool, 0, len(rows)*cols)}
	for i, r := range rows {
		if len(r) != cols {
			return Mask{}, fmt.Errorf("row %d has %d columns, want %d", i, len(r), cols)
		}
		m.cells = append(m.cells, r...)
	}
	return m, nil
}

// MaskFromCells builds a mask from a row-major slice; the input is copied.
func MaskFromCells(d Descriptor, cells []bool) (Mask, error) {
	if len(cells) != d.Cells() {
		return Mask{}, fmt.Errorf("got %d cells, want %d for %s", len(cells), d.Cells(), d)
	}
	m := Mask{rows: d.Rows, cols: d.Cols, cells: make([]bool, len(cells))}
	copy(m.cells, cells)
	return m, nil
}

// Dims returns the mask extent.
func (m Mask) Dims() Descriptor { return Descriptor{Rows: m.rows, Cols: m.cols} }

// At reports whether cell (r, c) belongs to the zone. Out of range cells
// are never selected.
func (m Mask) At(r, c int) bool {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		return false
	}
	return m.cells[r*m.cols+c]
}

// Count returns the number of selected cells.
func (m Mask) Count() int {
	n := 0
	for _, v := range m.cells {
		if v {
			n++
		}
	}
	return n
}

// Empty reports whether the mask selects no cell.
func (m Mask) Empty() bool { return m.Count() == 0 }

// Each calls fn for every selected cell in row-major order.
func (m Mask) Each(fn func(r, c int)) {
	for i, v := range m.cells {
		if v {
			fn(i/m.cols, i%m.cols)
		}
	}
}

// Or returns the union of m and o. Both must share the same extent.
func (m Mask) Or(o Mask) (Mask, error) {
	if m.Dims() != o.Dims() {
		return Mask{}, fmt.Errorf("%w: cannot union %s with %s", ErrMaskDimension, m.Dims(), o.Dims())
	}
	u := Mask{rows: m.rows, cols: m.cols, cells: make([]bool, len(m.cells))}
	for i := range m.cells {
		u.cells[i] = m.cells[i] || o.cells[i]
	}
	return u, nil
}

// Check validates the mask extent against d.
func (d Descriptor) Check(path string, m Mask) error {
	if m.Dims() != d {
		return &MaskDimensionError{Path: path, Want: d, Got: m.Dims()}
	}
	return nil
}

// String draws the mask with '#' for selected cells and '.' elsewhere.
func (m Mask) String() string {
	var b strings.Builder
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if m.cells[r*m.cols+c] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
