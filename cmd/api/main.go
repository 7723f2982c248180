package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumind/internal/blobview"
	"resumind/internal/bootstrap"
	"resumind/internal/shared/config"
	"resumind/internal/shared/server"
	"resumind/internal/shared/telemetry"
)

const reapInterval = time.Minute

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup so fatal paths still flush logs and close
// backends before the process exits.
func run() int {
	cfg := config.Load()

	logger, err := telemetry.New(cfg.LogJSON, cfg.LogLevel == "debug")
	if err != nil {
		log.Printf("init logger: %v", err)
		return 1
	}
	telemetry.SetLogger(logger)
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("api.bootstrap_failed", map[string]any{"error": err})
		return 1
	}
	defer app.Close()

	go reapViews(ctx, app.Views)

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		telemetry.Error("api.listen_failed", map[string]any{"addr": srv.Addr, "error": err})
		return 1
	}
	app.MarkReady()

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("api.listening", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			telemetry.Error("api.server_error", map[string]any{"error": err})
			code = 1
		}
	}

	telemetry.Info("api.shutdown", map[string]any{"timeout_ms": server.ShutdownTimeout.Milliseconds()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("api.shutdown_failed", map[string]any{"error": err})
		code = 1
	}
	return code
}

// reapViews closes view sessions the browser abandoned without tearing down.
func reapViews(ctx context.Context, views *blobview.Registry) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := views.Reap(); n > 0 {
				telemetry.Debug("api.views_reaped", map[string]any{"sessions": n})
			}
		}
	}
}
