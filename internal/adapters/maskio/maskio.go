// Package maskio reads zone masks from disk.
//
// Three encodings are understood, chosen by file extension:
//
//	.npy   NumPy arrays written by numpy.save (bool, integer or float dtype)
//	.json  an array of rows of 0/1 numbers or booleans
//	other  text, one grid row per line, cells separated by blanks or commas
//
// Every cell must be 0 or 1. The loaded mask must match the run's grid.
package maskio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/rchpass/internal/domain/grid"
	"github.com/okian/rchpass/pkg/logger"
	"github.com/sbinet/npyio"
)

// Errors wrapped inside *grid.MaskFormatError.
var (
	errNotBinary   = errors.New("cell value must be 0 or 1")
	errRagged      = errors.New("rows have different lengths")
	errEmpty       = errors.New("no cells")
	errNotTwoDim   = errors.New("array is not two-dimensional")
	errUnsupported = errors.New("unsupported dtype")
	errTrailing    = errors.New("trailing content after the array")
)

// Loader reads masks for one grid.
type Loader struct {
	desc   grid.Descriptor
	logger logger.Logger
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets a custom logger for the loader.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader returns a loader validating masks against desc.
func NewLoader(desc grid.Descriptor, opts ...Option) *Loader {
	ld := &Loader{
		desc:   desc,
		logger: logger.Get().Named("maskio"),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load reads the mask stored at path.
func (ld *Loader) Load(ctx context.Context, path string) (grid.Mask, error) {
	if err := ctx.Err(); err != nil {
		return grid.Mask{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return grid.Mask{}, &grid.MaskFormatError{Path: path, Err: err}
	}
	defer f.Close()

	var m grid.Mask
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		m, err = ReadNPY(f)
	case ".json":
		m, err = ReadJSON(f)
	default:
		m, err = ReadText(f)
	}
	if err != nil {
		var fe *grid.MaskFormatError
		if errors.As(err, &fe) {
			fe.Path = path
			return grid.Mask{}, fe
		}
		return grid.Mask{}, &grid.MaskFormatError{Path: path, Err: err}
	}
	if err := ld.desc.Check(path, m); err != nil {
		return grid.Mask{}, err
	}
	ld.logger.Debug(ctx, "mask loaded", logger.String("path", path), logger.Int("cells", m.Count()))
	return m, nil
}

// ReadText reads a whitespace or comma separated 0/1 grid. Lines starting
// with '#' and blank lines are ignored.
func ReadText(r io.Reader) (grid.Mask, error) {
	var rows [][]bool
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		row := make([]bool, len(fields))
		for i, fd := range fields {
			v, err := parseCell(fd)
			if err != nil {
				return grid.Mask{}, &grid.MaskFormatError{Line: line, Err: fmt.Errorf("column %d: %w", i+1, err)}
			}
			row[i] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return grid.Mask{}, &grid.MaskFormatError{Line: line, Err: fmt.Errorf("%w: %d cells, want %d", errRagged, len(row), len(rows[0]))}
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return grid.Mask{}, err
	}
	return fromRows(rows)
}

// ReadJSON reads an array of rows; cells are 0/1 numbers or booleans.
func ReadJSON(r io.Reader) (grid.Mask, error) {
	var raw [][]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return grid.Mask{}, err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return grid.Mask{}, errTrailing
	}
	rows := make([][]bool, len(raw))
	for i, cells := range raw {
		if i > 0 && len(cells) != len(raw[0]) {
			return grid.Mask{}, fmt.Errorf("row %d: %w", i, errRagged)
		}
		rows[i] = make([]bool, len(cells))
		for j, c := range cells {
			switch v := c.(type) {
			case bool:
				rows[i][j] = v
			case float64:
				b, err := binary(v)
				if err != nil {
					return grid.Mask{}, fmt.Errorf("row %d, column %d: %w", i, j, err)
				}
				rows[i][j] = b
			default:
				return grid.Mask{}, fmt.Errorf("row %d, column %d: %w", i, j, errNotBinary)
			}
		}
	}
	return fromRows(rows)
}

// ReadNPY reads a two-dimensional NumPy array.
func ReadNPY(r io.Reader) (grid.Mask, error) {
	npy, err := npyio.NewReader(r)
	if err != nil {
		return grid.Mask{}, err
	}
	shape := npy.Header.Descr.Shape
	if len(shape) != 2 {
		return grid.Mask{}, fmt.Errorf("%w: shape %v", errNotTwoDim, shape)
	}
	d := grid.Descriptor{Rows: shape[0], Cols: shape[1]}
	if d.Cells() == 0 {
		return grid.Mask{}, errEmpty
	}

	var vals []float64
	dtype := strings.TrimLeft(npy.Header.Descr.Type, "<>|=")
	switch dtype {
	case "b1":
		buf := make([]bool, d.Cells())
		if err := npy.Read(&buf); err != nil {
			return grid.Mask{}, err
		}
		vals = make([]float64, len(buf))
		for i, b := range buf {
			if b {
				vals[i] = 1
			}
		}
	case "i1":
		vals, err = readNumbers[int8](npy, d.Cells())
	case "u1":
		vals, err = readNumbers[uint8](npy, d.Cells())
	case "i2":
		vals, err = readNumbers[int16](npy, d.Cells())
	case "u2":
		vals, err = readNumbers[uint16](npy, d.Cells())
	case "i4":
		vals, err = readNumbers[int32](npy, d.Cells())
	case "u4":
		vals, err = readNumbers[uint32](npy, d.Cells())
	case "i8":
		vals, err = readNumbers[int64](npy, d.Cells())
	case "u8":
		vals, err = readNumbers[uint64](npy, d.Cells())
	case "f4":
		vals, err = readNumbers[float32](npy, d.Cells())
	case "f8":
		vals, err = readNumbers[float64](npy, d.Cells())
	default:
		return grid.Mask{}, fmt.Errorf("%w: %q", errUnsupported, npy.Header.Descr.Type)
	}
	if err != nil {
		return grid.Mask{}, err
	}

	cells := make([]bool, d.Cells())
	for i, v := range vals {
		b, err := binary(v)
		if err != nil {
			return grid.Mask{}, fmt.Errorf("element %d: %w", i, err)
		}
		k := i
		if npy.Header.Descr.Fortran {
			// column-major: element i is (i%rows, i/rows)
			k = (i%d.Rows)*d.Cols + i/d.Rows
		}
		cells[k] = b
	}
	return grid.MaskFromCells(d, cells)
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

func readNumbers[T number](npy *npyio.Reader, n int) ([]float64, error) {
	buf := make([]T, n)
	if err := npy.Read(&buf); err != nil {
		return nil, err
	}
	out := make([]float64, len(buf))
	for i, v := range buf {
		out[i] = float64(v)
	}
	return out, nil
}

func fromRows(rows [][]bool) (grid.Mask, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return grid.Mask{}, errEmpty
	}
	return grid.MaskFromRows(rows)
}

func parseCell(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, fmt.Errorf("%w: %q", errNotBinary, s)
	}
	return binary(v)
}

func binary(v float64) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: %v", errNotBinary, v)
}
