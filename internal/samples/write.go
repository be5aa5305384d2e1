package samples

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/okian/rchpass/pkg/logger"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Mask file formats.
const (
	FormatNPY  = "npy"
	FormatJSON = "json"
	FormatText = "txt"

	ConfigFile = "rchpass.yaml"
	filePerm   = 0o644
	dirPerm    = 0o755
)

// tLevelColumns is the column layout of the written tables.
var tLevelColumns = []string{
	"Time", "rTop", "rRoot", "vTop", "vRoot", "vBot",
	"sum(rTop)", "sum(rRoot)", "sum(vTop)", "sum(vRoot)", "sum(vBot)", "hTop", "hRoot", "hBot",
}

// Files lists what Write produced.
type Files struct {
	Config string
	Masks  []string
	Series []string
}

// Write stores ds under dir: masks/<zone>.<format>, hydrus/<zone>/T_Level.out
// and a config file naming them in zone order.
func Write(ctx context.Context, dir string, ds Dataset, format string) (Files, error) {
	log := logger.Get().Named("samples")
	if format == "" {
		format = FormatNPY
	}
	var files Files
	shapes := make([]map[string]any, 0, len(ds.Zones))
	for i, z := range ds.Zones {
		if err := ctx.Err(); err != nil {
			return Files{}, err
		}
		mpath := filepath.Join(dir, "masks", z.Name+"."+format)
		if err := writeFile(mpath, func(w io.Writer) error { return WriteMask(w, ds, i, format) }); err != nil {
			return Files{}, err
		}
		spath := filepath.Join(dir, "hydrus", z.Name, "T_Level.out")
		if err := writeFile(spath, func(w io.Writer) error { return WriteTLevel(w, z.Values) }); err != nil {
			return Files{}, err
		}
		files.Masks = append(files.Masks, mpath)
		files.Series = append(files.Series, spath)
		shapes = append(shapes, map[string]any{"mask": mpath, "series": spath})
	}

	conf, err := yaml.Parser().Marshal(map[string]any{
		"rows":       ds.Desc.Rows,
		"cols":       ds.Desc.Cols,
		"model_name": "sample",
		"shapes":     shapes,
		"output_dir": filepath.Join(dir, "rch"),
	})
	if err != nil {
		return Files{}, fmt.Errorf("encode config: %w", err)
	}
	files.Config = filepath.Join(dir, ConfigFile)
	if err := writeFile(files.Config, func(w io.Writer) error {
		_, err := w.Write(conf)
		return err
	}); err != nil {
		return Files{}, err
	}
	log.Info(ctx, "sample data written",
		logger.String("dir", dir),
		logger.String("format", format),
		logger.Int("zones", len(ds.Zones)),
	)
	return files, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteMask writes zone i of ds as a 0/1 mask in the given format.
func WriteMask(w io.Writer, ds Dataset, i int, format string) error {
	m, err := ds.Zones[i].Mask(ds.Desc)
	if err != nil {
		return err
	}
	d := m.Dims()
	switch format {
	case FormatNPY:
		a := mat.NewDense(d.Rows, d.Cols, nil)
		m.Each(func(r, c int) { a.Set(r, c, 1) })
		return npyio.Write(w, a)
	case FormatJSON:
		rows := make([][]int, d.Rows)
		for r := range rows {
			rows[r] = make([]int, d.Cols)
		}
		m.Each(func(r, c int) { rows[r][c] = 1 })
		return json.NewEncoder(w).Encode(rows)
	case FormatText:
		for r := 0; r < d.Rows; r++ {
			cells := make([]string, d.Cols)
			for c := range cells {
				cells[c] = "0"
				if m.At(r, c) {
					cells[c] = "1"
				}
			}
			if _, err := fmt.Fprintln(w, strings.Join(cells, " ")); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown mask format %q", format)
}

// WriteTLevel writes values as a HYDRUS-1D T_Level.out table with the flux
// in the vBot column at times 1..N. Other flux columns are zero and the
// cumulative bottom flux is carried along.
func WriteTLevel(w io.Writer, values []float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "******* Program HYDRUS")
	fmt.Fprintln(bw, "******* ")
	fmt.Fprintln(bw, " Welcome to HYDRUS-1D")
	fmt.Fprintln(bw, " Date:   1. 1.    Time:   0: 0: 0")
	fmt.Fprintln(bw, " Units: L = cm   , T = days , M = mmol")
	fmt.Fprintln(bw)

	for _, c := range tLevelColumns {
		fmt.Fprintf(bw, " %12s", c)
	}
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, " %12s", "[T]")
	for range tLevelColumns[1:11] {
		fmt.Fprintf(bw, " %12s", "[L/T]")
	}
	for range tLevelColumns[11:] {
		fmt.Fprintf(bw, " %12s", "[L]")
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw)

	var cum float64
	for i, v := range values {
		cum += v
		row := []float64{float64(i + 1), 0, 0, 0, 0, v, 0, 0, 0, 0, cum, -100, 0, -50}
		fmt.Fprintf(bw, " %12.4f", row[0])
		for _, x := range row[1:5] {
			fmt.Fprintf(bw, " %12.4E", x)
		}
		fmt.Fprintf(bw, " %12.*f", valueDecimals, row[5])
		for _, x := range row[6:] {
			fmt.Fprintf(bw, " %12.4E", x)
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, "end")
	return bw.Flush()
}
