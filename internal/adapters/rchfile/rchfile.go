// Package rchfile writes and reads recharge arrays as MODFLOW free-format
// array files, one file per stress period:
//
//	INTERNAL 1.0 (FREE) -1
//	0 0 -2.7497 -2.7497 ...
//	...
//
// The control line is optional. Each grid row is one text line.
package rchfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/rchpass/pkg/logger"
	"gonum.org/v1/gonum/mat"
)

// Defaults.
const (
	DefaultPrefix = "rch_"
	DefaultExt    = ".txt"
	ControlLine   = "INTERNAL 1.0 (FREE) -1"
)

// ErrFormat reports an array file that cannot be read back.
var ErrFormat = errors.New("recharge array format error")

// Writer writes one file per period into a directory.
type Writer struct {
	dir    string
	prefix string
	header bool
	logger logger.Logger
}

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithHeader toggles the MODFLOW control line.
func WithHeader(on bool) Option {
	return func(w *Writer) { w.header = on }
}

// WithPrefix sets the file name prefix.
func WithPrefix(prefix string) Option {
	return func(w *Writer) {
		if prefix != "" {
			w.prefix = prefix
		}
	}
}

// WithLogger sets a custom logger for the writer.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter creates dir if needed and returns a Writer into it.
func NewWriter(dir string, opts ...Option) (*Writer, error) {
	w := &Writer{
		dir:    dir,
		prefix: DefaultPrefix,
		header: true,
		logger: logger.Get().Named("rchfile"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return w, nil
}

// Path returns the file name used for period.
func (w *Writer) Path(period int) string {
	return filepath.Join(w.dir, w.prefix+strconv.Itoa(period)+DefaultExt)
}

// Write stores the array of one period. The file appears atomically.
func (w *Writer) Write(ctx context.Context, period int, a mat.Matrix) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := w.Path(period)
	tmp, err := os.CreateTemp(w.dir, ".rch-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	bw := bufio.NewWriter(tmp)
	if err := WriteArray(bw, a, w.header); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename %s: %w", path, err)
	}
	w.logger.Debug(ctx, "array written", logger.String("path", path), logger.Int("period", period))
	return path, nil
}

// WriteArray writes a in free format, optionally preceded by the control
// line. Values use the shortest representation that reads back exactly.
func WriteArray(out io.Writer, a mat.Matrix, header bool) error {
	if header {
		if _, err := io.WriteString(out, ControlLine+"\n"); err != nil {
			return fmt.Errorf("write control line: %w", err)
		}
	}
	rows, cols := a.Dims()
	buf := make([]byte, 0, cols*12)
	for i := 0; i < rows; i++ {
		buf = buf[:0]
		for j := 0; j < cols; j++ {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, a.At(i, j), 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := out.Write(buf); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

// Read parses an array written by WriteArray. A leading control line is
// skipped; rows must all have the same width.
func Read(r io.Reader) (*mat.Dense, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		data []float64
		cols int
		rows int
		line int
	)
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if rows == 0 && line == 1 && strings.EqualFold(fields[0], "INTERNAL") {
			continue
		}
		if cols == 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%w: line %d: %d values, want %d", ErrFormat, line, len(fields), cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q", ErrFormat, line, f)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrFormat)
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadFile reads the array stored at path.
func ReadFile(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	a, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}
