package maskio_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/rchpass/internal/adapters/maskio"
	"github.com/okian/rchpass/internal/domain/grid"
	"github.com/sbinet/npyio"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func writeNPY(t *testing.T, dir, name string, val any) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := npyio.Write(f, val); err != nil {
		t.Fatal(err)
	}
	return p
}

// writeRawNPY writes a version 1.0 .npy file with a hand-built header, so
// that fortran_order can be set.
func writeRawNPY(t *testing.T, dir, name, descr string, fortran bool, shape string, data []byte) string {
	t.Helper()
	order := "False"
	if fortran {
		order = "True"
	}
	hdr := "{'descr': '" + descr + "', 'fortran_order': " + order + ", 'shape': " + shape + ", }"
	// magic(6) + version(2) + length(2) + header, padded to 64 bytes
	pad := 64 - (10+len(hdr)+1)%64
	hdr += strings.Repeat(" ", pad%64) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(hdr)))
	buf.WriteString(hdr)
	buf.Write(data)
	return writeFile(t, dir, name, buf.String())
}

func float64s(vals ...float64) []byte {
	out := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
	}
	return out
}

func TestLoader(t *testing.T) {
	ctx := context.Background()
	desc := grid.Descriptor{Rows: 2, Cols: 3}

	Convey("Given a loader for a 2x3 grid", t, func() {
		dir := t.TempDir()
		ld := maskio.NewLoader(desc)

		Convey("When loading a text mask", func() {
			p := writeFile(t, dir, "mask.txt", "# zone 1\n1 0 0\n\n0,1,1\n")
			m, err := ld.Load(ctx, p)

			Convey("Then the cells are read row by row", func() {
				So(err, ShouldBeNil)
				So(m.String(), ShouldEqual, "#..\n.##\n")
			})
		})

		Convey("When loading a numpy.savetxt style mask", func() {
			p := writeFile(t, dir, "mask.csv", "1.000000000000000000e+00 0.000000000000000000e+00 0.000000000000000000e+00\n0.0 0.0 1.0\n")
			m, err := ld.Load(ctx, p)
			So(err, ShouldBeNil)
			So(m.Count(), ShouldEqual, 2)
		})

		Convey("When loading a JSON mask drawn in the browser", func() {
			p := writeFile(t, dir, "mask.json", `[[1,0,true],[false,0,1]]`)
			m, err := ld.Load(ctx, p)
			So(err, ShouldBeNil)
			So(m.String(), ShouldEqual, "#.#\n..#\n")
		})

		Convey("When loading a NumPy mask", func() {
			p := writeNPY(t, dir, "mask.npy", mat.NewDense(2, 3, []float64{0, 1, 0, 1, 0, 0}))
			m, err := ld.Load(ctx, p)

			Convey("Then it is decoded in C order", func() {
				So(err, ShouldBeNil)
				So(m.String(), ShouldEqual, ".#.\n#..\n")
			})
		})

		Convey("When the NumPy mask is stored in Fortran order", func() {
			// columns of ".##" / "..#"
			colMajor := []float64{0, 0, 1, 0, 1, 1}
			p := writeRawNPY(t, dir, "fortran.npy", "<f8", true, "(2, 3)", float64s(colMajor...))
			m, err := ld.Load(ctx, p)

			Convey("Then elements are placed column by column", func() {
				So(err, ShouldBeNil)
				So(m.String(), ShouldEqual, ".##\n..#\n")
			})

			Convey("Then the same bytes in C order give another footprint", func() {
				c := writeRawNPY(t, dir, "corder.npy", "<f8", false, "(2, 3)", float64s(colMajor...))
				m, err := ld.Load(ctx, c)
				So(err, ShouldBeNil)
				So(m.String(), ShouldEqual, "..#\n.##\n")
			})

			Convey("Then integer dtypes are remapped the same way", func() {
				u := writeRawNPY(t, dir, "fortran_u1.npy", "|u1", true, "(2, 3)", []byte{0, 0, 1, 0, 1, 1})
				m, err := ld.Load(ctx, u)
				So(err, ShouldBeNil)
				So(m.String(), ShouldEqual, ".##\n..#\n")
			})
		})

		Convey("When the NumPy array is not two-dimensional", func() {
			p := writeNPY(t, dir, "flat.npy", []float64{0, 1, 0, 1, 0, 0})
			_, err := ld.Load(ctx, p)
			So(errors.Is(err, grid.ErrMaskFormat), ShouldBeTrue)
		})

		Convey("When the mask has the wrong dimensions", func() {
			p := writeFile(t, dir, "big.txt", "1 0\n0 1\n")
			_, err := ld.Load(ctx, p)

			Convey("Then it fails with a dimension error", func() {
				var de *grid.MaskDimensionError
				So(errors.As(err, &de), ShouldBeTrue)
				So(de.Got, ShouldResemble, grid.Descriptor{Rows: 2, Cols: 2})
				So(de.Want, ShouldResemble, desc)
				So(errors.Is(err, grid.ErrMaskFormat), ShouldBeFalse)
			})
		})

		Convey("When a cell is not 0 or 1", func() {
			p := writeFile(t, dir, "bad.txt", "1 0 0\n0 2 0\n")
			_, err := ld.Load(ctx, p)

			Convey("Then it fails with a format error locating the line", func() {
				var fe *grid.MaskFormatError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Line, ShouldEqual, 2)
				So(fe.Path, ShouldEqual, p)
			})
		})

		Convey("When rows are ragged", func() {
			p := writeFile(t, dir, "ragged.txt", "1 0 0\n0 1\n")
			_, err := ld.Load(ctx, p)
			So(errors.Is(err, grid.ErrMaskFormat), ShouldBeTrue)
		})

		Convey("When the JSON is malformed or ragged", func() {
			for i, content := range []string{`[[1,0,0],[0,1]]`, `[[1,0,"x"],[0,0,0]]`, `{"rows":1}`, `[]`, `[[1,0,0],[0,1,1]] garbage`, `[[1,0,0],[0,1,1]][[0,0,0],[0,0,0]]`} {
				p := writeFile(t, dir, "bad"+strings.Repeat("x", i)+".json", content)
				_, err := ld.Load(ctx, p)
				So(errors.Is(err, grid.ErrMaskFormat), ShouldBeTrue)
			}
		})

		Convey("When the file does not exist", func() {
			_, err := ld.Load(ctx, filepath.Join(dir, "missing.npy"))
			So(errors.Is(err, grid.ErrMaskFormat), ShouldBeTrue)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})

		Convey("When the content is empty", func() {
			p := writeFile(t, dir, "empty.txt", "\n# nothing\n")
			_, err := ld.Load(ctx, p)
			So(errors.Is(err, grid.ErrMaskFormat), ShouldBeTrue)
		})
	})
}
