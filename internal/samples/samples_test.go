package samples_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/rchpass/internal/adapters/hydrus"
	"github.com/okian/rchpass/internal/adapters/http/api"
	"github.com/okian/rchpass/internal/adapters/maskio"
	service "github.com/okian/rchpass/internal/app"
	"github.com/okian/rchpass/internal/config"
	"github.com/okian/rchpass/internal/domain/recharge"
	"github.com/okian/rchpass/internal/domain/shape"
	"github.com/okian/rchpass/internal/samples"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

// firstPeriod is the reference array of period 0. Rows 5-9 are zero.
var firstPeriod = [][]float64{
	{-2.7497, -2.7497, -2.8497, -2.8497, -2.8497, 0, 0, 0, 0, 0},
	{-2.7497, -2.7497, -2.8497, -2.8497, -2.8497, 0, 0, 0, 0, 0},
	{-5.9497, -5.9497, -2.8497, -2.8497, -2.8497, 0, 0, 0, 0, 0},
	{-5.9497, -5.9497, -2.8497, -3.1497, -3.1497, 0, 0, 0, 0, 0},
	{-5.9497, -5.9497, -3.1497, -3.1497, -3.1497, 0, 0, 0, 0, 0},
}

func dense(rows [][]float64, r, c int) *mat.Dense {
	a := mat.NewDense(r, c, nil)
	for i, row := range rows {
		a.SetRow(i, row)
	}
	return a
}

func TestReference(t *testing.T) {
	Convey("Given the reference data set", t, func() {
		ds := samples.Reference()

		Convey("Then period 0 paints zones in order", func() {
			got, err := ds.Expected(0)
			So(err, ShouldBeNil)
			So(mat.Equal(got, dense(firstPeriod, 10, 10)), ShouldBeTrue)
		})

		Convey("Then every zone serves twelve steps", func() {
			So(ds.Steps(), ShouldEqual, samples.ReferenceSteps)
			So(ds.Zones[0].Values[1], ShouldEqual, -2.7622)
			_, err := ds.Expected(samples.ReferenceSteps)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestWriteAndLoad(t *testing.T) {
	ctx := context.Background()
	ds := samples.Reference()

	for _, format := range []string{samples.FormatNPY, samples.FormatJSON, samples.FormatText} {
		Convey("Given the data set written with "+format+" masks", t, func() {
			files, err := samples.Write(ctx, t.TempDir(), ds, format)
			So(err, ShouldBeNil)
			So(files.Masks, ShouldHaveLength, 4)

			pairs := make([]shape.Pair, len(files.Masks))
			for i := range pairs {
				pairs[i] = shape.Pair{Mask: files.Masks[i], Series: files.Series[i]}
			}
			infos, err := shape.CreateShapeInfo(pairs)
			So(err, ShouldBeNil)

			Convey("When the zones are read and composed", func() {
				reg := shape.NewRegistry(maskio.NewLoader(ds.Desc), hydrus.NewParser())
				shapes, err := reg.ReadShapes(ctx, infos)
				So(err, ShouldBeNil)
				b, err := recharge.New(ds.Desc, shapes)
				So(err, ShouldBeNil)

				Convey("Then every period matches the expected array", func() {
					for p := 0; p < ds.Steps(); p++ {
						got, err := b.UpdateRCH(p)
						So(err, ShouldBeNil)
						want, _ := ds.Expected(p)
						So(mat.Equal(got, want), ShouldBeTrue)
					}
					_, err := b.UpdateRCH(ds.Steps())
					So(err, ShouldNotBeNil)
				})
			})
		})
	}

	Convey("Given the written config file", t, func() {
		files, err := samples.Write(ctx, t.TempDir(), ds, "")
		So(err, ShouldBeNil)
		cfg, err := config.LoadFile(ctx, files.Config)

		Convey("Then it names the zones in order", func() {
			So(err, ShouldBeNil)
			So(cfg.Rows, ShouldEqual, 10)
			So(cfg.Shapes, ShouldHaveLength, 4)
			So(cfg.Shapes[3].Mask, ShouldEqual, files.Masks[3])
			So(cfg.Shapes[3].Series, ShouldEqual, files.Series[3])
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := samples.Write(cctx, t.TempDir(), ds, "")
		So(err, ShouldEqual, context.Canceled)
	})
}

func TestWriteTLevel(t *testing.T) {
	Convey("Given a written T_Level.out table", t, func() {
		var buf bytes.Buffer
		So(samples.WriteTLevel(&buf, []float64{-1.25, -0.5, 0}), ShouldBeNil)

		Convey("Then the parser reads the vBot column back", func() {
			s, err := hydrus.NewParser().Parse(&buf)
			So(err, ShouldBeNil)
			So(s.Values(), ShouldResemble, []float64{-1.25, -0.5, 0})
			So(s.Times(), ShouldResemble, []float64{1, 2, 3})
		})
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	ds := samples.Reference()

	Convey("Given a server over the loaded sample run", t, func() {
		files, err := samples.Write(ctx, t.TempDir(), ds, "")
		So(err, ShouldBeNil)
		cfg, err := config.LoadFile(ctx, files.Config)
		So(err, ShouldBeNil)
		svc := service.New(cfg)
		So(svc.Load(ctx), ShouldBeNil)
		srv := httptest.NewServer(api.NewServer(svc).Router())
		defer srv.Close()

		Convey("Then verification passes", func() {
			rep, err := samples.Verify(ctx, samples.VerifyConfig{BaseURL: srv.URL, Workers: 3}, ds)
			So(err, ShouldBeNil)
			So(rep.Checked, ShouldEqual, ds.Steps())
			So(rep.Failures, ShouldBeEmpty)
			So(rep.OK(), ShouldBeTrue)
		})

		Convey("Then a data set with other values is reported", func() {
			other := samples.Reference()
			other.Zones[1].Values[4] = 1
			rep, err := samples.Verify(ctx, samples.VerifyConfig{BaseURL: srv.URL}, other)
			So(err, ShouldBeNil)
			So(rep.Mismatched, ShouldEqual, 1)
			So(rep.OK(), ShouldBeFalse)
		})
	})

	Convey("Given a server that serves every period", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"period":0,"rows":10,"cols":10,"values":[]}`))
		}))
		defer srv.Close()

		Convey("Then the missing 404 and bad arrays are reported", func() {
			rep, err := samples.Verify(ctx, samples.VerifyConfig{BaseURL: srv.URL}, ds)
			So(err, ShouldBeNil)
			So(rep.OutOfRange, ShouldBeFalse)
			So(rep.Mismatched, ShouldEqual, ds.Steps())
			So(rep.OK(), ShouldBeFalse)
		})
	})
}
