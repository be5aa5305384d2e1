// Package serve implements a command to serve recharge arrays over HTTP.
package serve

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/js-arias/command"
	"github.com/okian/rchpass/cmd/rchpass/boot"
	"github.com/okian/rchpass/internal/adapters/http/api"
	service "github.com/okian/rchpass/internal/app"
	"github.com/okian/rchpass/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

var Command = &command.Command{
	Usage: "serve [--config <file>] [--addr <address>]",
	Short: "serve recharge arrays over HTTP",
	Long: `
Command serve loads the zones of a coupling run and serves them until it is
interrupted:

	GET /recharge/<period>      the array as JSON, or ?format=modflow
	GET /recharge/<period>/png  a heat map of the array
	GET /stats                  run summary
	GET /shapes                 zone summaries
	GET /healthz                Prometheus metrics
	GET /api-docs               API documentation

By default the configured addr is used; use --addr to listen elsewhere.
` + boot.ConfigUsage,
	SetFlags: setFlags,
	Run:      run,
}

var configFile string
var addr string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&configFile, "config", "", "")
	c.Flags().StringVar(&addr, "addr", "", "")
}

func run(c *command.Command, args []string) error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx)
}

// serve runs the server until ctx is done.
func serve(ctx context.Context) error {
	cfg, err := boot.Config(ctx, configFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	log := logger.Get()

	svc := service.New(cfg, service.WithLogger(log.Named("service")))
	if err := svc.Load(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc).Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("run_id", svc.RunID()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
