package verify

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/rchpass/internal/adapters/http/api"
	service "github.com/okian/rchpass/internal/app"
	"github.com/okian/rchpass/internal/config"
	"github.com/okian/rchpass/internal/samples"
	"github.com/smartystreets/goconvey/convey"
)

func TestVerify(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a server over the sample run", t, func() {
		files, err := samples.Write(ctx, t.TempDir(), samples.Reference(), samples.FormatNPY)
		convey.So(err, convey.ShouldBeNil)
		cfg, err := config.LoadFile(ctx, files.Config)
		convey.So(err, convey.ShouldBeNil)
		svc := service.New(cfg)
		convey.So(svc.Load(ctx), convey.ShouldBeNil)
		srv := httptest.NewServer(api.NewServer(svc).Router())
		defer srv.Close()
		var out bytes.Buffer
		Command.SetStdout(&out)

		convey.Convey("Then every period checks out", func() {
			err := Command.Execute([]string{"--url", srv.URL, "--workers", "2"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(out.String(), convey.ShouldEqual, "checked 12 periods, 0 mismatched\n")
		})
	})

	convey.Convey("Given a server that answers nothing", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		var out bytes.Buffer
		Command.SetStdout(&out)

		convey.Convey("Then the failures are printed and the command fails", func() {
			err := Command.Execute([]string{"--url", srv.URL})
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(out.String(), convey.ShouldContainSubstring, "checked ")
		})
	})
}
