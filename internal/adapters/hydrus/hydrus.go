// Package hydrus parses the HYDRUS-1D T_Level.out table into a recharge
// series.
//
// The table starts with a few descriptive lines, then a column-name line
// (first field "Time"), a units line ("[T]  [L/T] ..."), one line per time
// step and an "end" marker:
//
//	******* Program HYDRUS
//	 Welcome to HYDRUS-1D
//	 Date:   1. 1.    Time:   0: 0: 0
//	 Units: L = cm   , T = days , M = mmol
//
//	       Time          rTop        rRoot        vTop         vRoot        vBot ...
//	        [T]         [L/T]        [L/T]        [L/T]        [L/T]        [L/T] ...
//
//	    1.0000  ...
//	end
//
// Which column is the recharge-relevant one, and how its value converts to
// the groundwater model's units, is a convention of the soil model set-up.
// Both are injectable; the defaults take the bottom flux "vBot" unchanged.
package hydrus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/rchpass/internal/domain/series"
	"github.com/okian/rchpass/pkg/logger"
	"github.com/okian/rchpass/pkg/metrics"
)

// Default parser configuration constants.
const (
	DefaultColumn         = "vBot"
	DefaultTimeColumn     = "Time"
	DefaultMaxHeaderLines = 16
	DefaultScale          = 1.0
	DefaultOffset         = 0.0
	endMarker             = "end"
	maxLineBytes          = 1024 * 1024
)

// Errors wrapped inside *series.FormatError.
var (
	ErrMissingHeader = errors.New("missing column header")
	ErrMissingUnits  = errors.New("missing units line")
	ErrMissingColumn = errors.New("designated column not in header")
	ErrRagged        = errors.New("ragged row")
	ErrNotNumeric    = errors.New("non-numeric field")
	ErrNoData        = errors.New("table has no data rows")
	ErrOverflow      = errors.New("recharge value overflows after transform")
)

// state names the parser position in the table.
type state int

const (
	skipHeader state = iota
	readMetadata
	readData
	done
)

func (s state) String() string {
	switch s {
	case skipHeader:
		return "skip-header"
	case readMetadata:
		return "read-metadata"
	case readData:
		return "read-data"
	case done:
		return "done"
	}
	return "unknown"
}

// Transform converts the raw column value into a recharge value:
// Scale*raw + Offset.
type Transform struct {
	Scale  float64
	Offset float64
}

// Apply returns the transformed value.
func (t Transform) Apply(raw float64) float64 { return t.Scale*raw + t.Offset }

// Parser reads T_Level.out tables.
type Parser struct {
	column         string
	timeColumn     string
	maxHeaderLines int
	transform      Transform
	spinUp         float64
	logger         logger.Logger
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithColumn selects the value column by its header name.
func WithColumn(name string) Option {
	return func(p *Parser) {
		if name != "" {
			p.column = name
		}
	}
}

// WithTimeColumn sets the name of the first header field.
func WithTimeColumn(name string) Option {
	return func(p *Parser) {
		if name != "" {
			p.timeColumn = name
		}
	}
}

// WithMaxHeaderLines bounds how many lines may precede the column names.
func WithMaxHeaderLines(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxHeaderLines = n
		}
	}
}

// WithTransform sets the raw-to-recharge conversion.
func WithTransform(t Transform) Option {
	return func(p *Parser) {
		p.transform = t
	}
}

// WithSpinUp drops steps simulated at or before spinUp.
func WithSpinUp(spinUp float64) Option {
	return func(p *Parser) {
		if spinUp > 0 {
			p.spinUp = spinUp
		}
	}
}

// WithLogger sets a custom logger for the parser.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser creates a parser with the default column and transform.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		column:         DefaultColumn,
		timeColumn:     DefaultTimeColumn,
		maxHeaderLines: DefaultMaxHeaderLines,
		transform:      Transform{Scale: DefaultScale, Offset: DefaultOffset},
		logger:         logger.Get().Named("hydrus"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile parses the table stored at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (series.Series, error) {
	if err := ctx.Err(); err != nil {
		return series.Series{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return series.Series{}, &series.FormatError{Path: path, Err: err}
	}
	defer f.Close()

	s, err := p.Parse(f)
	if err != nil {
		var fe *series.FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return series.Series{}, err
	}
	p.logger.Debug(ctx, "series parsed", logger.String("path", path), logger.Int("steps", s.Len()))
	return s, nil
}

// table accumulates what the state machine has read so far.
type table struct {
	fields   int // fields per data row, from the column-name line
	valueCol int
	header   int // lines seen in skip-header
	times    []float64
	values   []float64
}

// Parse reads one table. On any error no series is returned.
func (p *Parser) Parse(r io.Reader) (series.Series, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	st := skipHeader
	var tb table
	line := 0
	for st != done && sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		var err error
		st, err = p.step(st, &tb, fields)
		if err != nil {
			return series.Series{}, &series.FormatError{Line: line, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return series.Series{}, &series.FormatError{Line: line, Err: err}
	}

	switch st {
	case skipHeader:
		return series.Series{}, &series.FormatError{Err: ErrMissingHeader}
	case readMetadata:
		return series.Series{}, &series.FormatError{Err: ErrMissingUnits}
	}
	if len(tb.values) == 0 {
		return series.Series{}, &series.FormatError{Err: ErrNoData}
	}

	s, err := series.New(tb.times, tb.values)
	if err != nil {
		return series.Series{}, &series.FormatError{Err: err}
	}
	metrics.RecordSeriesParsed(len(tb.values))
	return s.After(p.spinUp), nil
}

// step consumes one line in state st and returns the next state.
func (p *Parser) step(st state, tb *table, fields []string) (state, error) {
	switch st {
	case skipHeader:
		if len(fields) > 0 && fields[0] == p.timeColumn {
			return p.columns(tb, fields)
		}
		tb.header++
		if tb.header >= p.maxHeaderLines {
			return st, fmt.Errorf("%w: no %q line within %d lines", ErrMissingHeader, p.timeColumn, p.maxHeaderLines)
		}
		return skipHeader, nil

	case readMetadata:
		if len(fields) == 0 {
			return readMetadata, nil
		}
		if !strings.HasPrefix(fields[0], "[") {
			return st, fmt.Errorf("%w: got %q", ErrMissingUnits, fields[0])
		}
		return readData, nil

	case readData:
		if len(fields) == 0 {
			return readData, nil
		}
		if strings.EqualFold(fields[0], endMarker) {
			return done, nil
		}
		if len(fields) != tb.fields {
			return st, fmt.Errorf("%w: %d fields, header has %d", ErrRagged, len(fields), tb.fields)
		}
		t, ok := number(fields[0])
		if !ok {
			return st, fmt.Errorf("%w: %s %q", ErrNotNumeric, p.timeColumn, fields[0])
		}
		raw, ok := number(fields[tb.valueCol])
		if !ok {
			return st, fmt.Errorf("%w: %s %q", ErrNotNumeric, p.column, fields[tb.valueCol])
		}
		v := p.transform.Apply(raw)
		if !finite(v) {
			return st, fmt.Errorf("%w: %s %q", ErrOverflow, p.column, fields[tb.valueCol])
		}
		tb.times = append(tb.times, t)
		tb.values = append(tb.values, v)
		return readData, nil
	}
	return st, nil
}

// number parses a decimal field as HYDRUS prints it. Go literal forms
// (hex mantissas, digit separators) never appear in a valid table.
func number(f string) (float64, bool) {
	if strings.ContainsAny(f, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(f, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

// finite rejects the NaN and Inf tokens a diverged run prints.
func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// columns handles the column-name line, the transition out of skip-header.
func (p *Parser) columns(tb *table, fields []string) (state, error) {
	tb.fields = len(fields)
	for i, f := range fields {
		if f == p.column {
			tb.valueCol = i
			return readMetadata, nil
		}
	}
	return skipHeader, fmt.Errorf("%w: %q", ErrMissingColumn, p.column)
}

// Column returns the designated value column name.
func (p *Parser) Column() string { return p.column }

// Transform returns the raw-to-recharge conversion.
func (p *Parser) Transform() Transform { return p.transform }
