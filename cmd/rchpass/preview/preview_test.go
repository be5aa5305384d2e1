package preview

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/rchpass/internal/samples"
	"github.com/smartystreets/goconvey/convey"
)

func TestPreview(t *testing.T) {
	convey.Convey("Given the sample data set", t, func() {
		files, err := samples.Write(context.Background(), t.TempDir(), samples.Reference(), samples.FormatNPY)
		convey.So(err, convey.ShouldBeNil)
		dir := t.TempDir()
		var out bytes.Buffer
		Command.SetStdout(&out)

		convey.Convey("When a period is drawn with a series plot", func() {
			img := filepath.Join(dir, "p3.png")
			plot := filepath.Join(dir, "series.svg")
			err := Command.Execute([]string{
				"--config", files.Config, "--period", "3", "--scale", "4",
				"--palette", "rainbow", "--plot", plot, "-o", img,
			})

			convey.Convey("Then the heat map is scaled per cell", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldStartWith, img+": period 3, values ")

				f, err := os.Open(img)
				convey.So(err, convey.ShouldBeNil)
				defer f.Close()
				cfg, err := png.DecodeConfig(f)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Width, convey.ShouldEqual, 40)
				convey.So(cfg.Height, convey.ShouldEqual, 40)
			})

			convey.Convey("Then the plot is written as SVG", func() {
				b, err := os.ReadFile(plot)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldContainSubstring, "<svg")
			})
		})

		convey.Convey("When a period past the data is drawn", func() {
			err := Command.Execute([]string{"--config", files.Config, "--period", "12", "-o", filepath.Join(dir, "x.png")})

			convey.Convey("Then it fails without an image", func() {
				convey.So(err, convey.ShouldNotBeNil)
				_, statErr := os.Stat(filepath.Join(dir, "x.png"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("Then bad drawing flags are usage errors", func() {
			convey.So(Command.Execute([]string{"--config", files.Config, "--scale", "0"}), convey.ShouldNotBeNil)
			convey.So(Command.Execute([]string{"--config", files.Config, "--palette", "sepia"}), convey.ShouldNotBeNil)
			convey.So(out.Len(), convey.ShouldEqual, 0)
		})
	})
}
