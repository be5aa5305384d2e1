// Package samples generates the reference coupling data set: four zones on
// a 10x10 grid with their masks, T_Level.out tables and a config file, plus
// the arrays a correct coupling must produce from them.
package samples

import (
	"fmt"
	"strconv"

	"github.com/okian/rchpass/internal/domain/grid"
	"gonum.org/v1/gonum/mat"
)

// Reference data set constants.
const (
	ReferenceRows  = 10
	ReferenceCols  = 10
	ReferenceSteps = 12
	valueDecimals  = 4
	stepDelta      = 0.0125
)

// Cell is a grid position.
type Cell struct{ Row, Col int }

// Zone is one sample zone: its name, covered cells and recharge per step.
type Zone struct {
	Name   string
	Cells  []Cell
	Values []float64
}

// Dataset is an ordered list of zones over one grid.
type Dataset struct {
	Desc  grid.Descriptor
	Zones []Zone
}

// block lists the cells of rows r0..r1 and cols c0..c1, inclusive.
func block(r0, r1, c0, c1 int) []Cell {
	var cells []Cell
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			cells = append(cells, Cell{r, c})
		}
	}
	return cells
}

// values returns steps values starting at first, rounded to the precision
// the tables are written with so that they read back exactly.
func values(first float64, steps int) []float64 {
	out := make([]float64, steps)
	for i := range out {
		v, _ := strconv.ParseFloat(strconv.FormatFloat(first-stepDelta*float64(i), 'f', valueDecimals, 64), 64)
		out[i] = v
	}
	return out
}

// Reference returns the four-zone data set. Its masks are disjoint; rows
// 5-9 and cols 5-9 are uncovered.
func Reference() Dataset {
	return Dataset{
		Desc: grid.Descriptor{Rows: ReferenceRows, Cols: ReferenceCols},
		Zones: []Zone{
			{Name: "zone1", Cells: block(0, 1, 0, 1), Values: values(-2.7497, ReferenceSteps)},
			{Name: "zone2", Cells: append(block(0, 2, 2, 4), Cell{3, 2}), Values: values(-2.8497, ReferenceSteps)},
			{Name: "zone3", Cells: append(block(3, 3, 3, 4), block(4, 4, 2, 4)...), Values: values(-3.1497, ReferenceSteps)},
			{Name: "zone4", Cells: block(2, 4, 0, 1), Values: values(-5.9497, ReferenceSteps)},
		},
	}
}

// Mask returns the zone's cells as a mask over d.
func (z Zone) Mask(d grid.Descriptor) (grid.Mask, error) {
	cells := make([]bool, d.Cells())
	for _, c := range z.Cells {
		if c.Row < 0 || c.Row >= d.Rows || c.Col < 0 || c.Col >= d.Cols {
			return grid.Mask{}, fmt.Errorf("zone %s: cell %d,%d outside %s", z.Name, c.Row, c.Col, d)
		}
		cells[c.Row*d.Cols+c.Col] = true
	}
	return grid.MaskFromCells(d, cells)
}

// Steps returns the number of periods every zone can serve.
func (ds Dataset) Steps() int {
	n := -1
	for _, z := range ds.Zones {
		if n < 0 || len(z.Values) < n {
			n = len(z.Values)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

// Expected returns the array a coupling must compose for period, painting
// zones in order so later zones win.
func (ds Dataset) Expected(period int) (*mat.Dense, error) {
	if period < 0 || period >= ds.Steps() {
		return nil, fmt.Errorf("period %d outside 0..%d", period, ds.Steps()-1)
	}
	a := mat.NewDense(ds.Desc.Rows, ds.Desc.Cols, nil)
	for _, z := range ds.Zones {
		for _, c := range z.Cells {
			a.Set(c.Row, c.Col, z.Values[period])
		}
	}
	return a, nil
}
