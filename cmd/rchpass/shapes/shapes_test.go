package shapes

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/rchpass/internal/samples"
	"github.com/smartystreets/goconvey/convey"
)

func TestShapes(t *testing.T) {
	convey.Convey("Given the sample data set", t, func() {
		ds := samples.Reference()
		files, err := samples.Write(context.Background(), t.TempDir(), ds, samples.FormatText)
		convey.So(err, convey.ShouldBeNil)
		var out bytes.Buffer
		Command.SetStdout(&out)

		convey.Convey("When the zones are listed", func() {
			err := Command.Execute([]string{"--config", files.Config})

			convey.Convey("Then one row per zone follows the header, in registration order", func() {
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(out.String()), "\n")
				convey.So(len(lines), convey.ShouldEqual, len(ds.Zones)+2)
				convey.So(lines[0], convey.ShouldStartWith, "index")
				for i := range ds.Zones {
					fields := strings.Fields(lines[i+1])
					convey.So(fields[0], convey.ShouldEqual, []string{"0", "1", "2", "3"}[i])
					convey.So(lines[i+1], convey.ShouldContainSubstring, filepath.Base(files.Masks[i]))
				}
				convey.So(strings.Fields(lines[1])[1], convey.ShouldEqual, "4")
			})

			convey.Convey("Then the summary reports coverage without overlaps", func() {
				last := out.String()[strings.LastIndex(strings.TrimSpace(out.String()), "\n")+1:]
				convey.So(last, convey.ShouldContainSubstring, "grid 10x10, 25 covered cells, 0 overlapping, 12 periods")
			})
		})

		convey.Convey("When a series file is missing", func() {
			convey.So(os.Remove(files.Series[2]), convey.ShouldBeNil)
			err := Command.Execute([]string{"--config", files.Config})

			convey.Convey("Then nothing is listed", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(out.Len(), convey.ShouldEqual, 0)
			})
		})
	})
}
