package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/target/webshell/config"
)

// RunConfig holds everything RunWithShutdown needs to serve until stopped.
type RunConfig struct {
	Config  *config.AppConfig
	Server  *HTTPServerConfig
	Logger  *slog.Logger
	Signals []os.Signal // defaults to SIGINT and SIGTERM
}

// RunWithShutdown starts the HTTP server and blocks until ctx is cancelled,
// a shutdown signal arrives, or the listener fails.
func RunWithShutdown(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil || cfg.Server == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server, errCh, err := StartHTTPServer(cfg.Server)
	if err != nil {
		return err
	}

	signals := cfg.Signals
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, signals...)
	defer signal.Stop(quit)

	shutdown := ShutdownConfig{Context: context.Background(), Server: server, Logger: logger}
	if cfg.Config != nil {
		shutdown.Timeout = cfg.Config.HTTP.ShutdownTimeout
	}

	select {
	case <-quit:
		logger.Info("shutdown signal received")
		return ShutdownHTTPServer(shutdown)
	case <-ctx.Done():
		return ShutdownHTTPServer(shutdown)
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		logger.Error("HTTP server failed", "error", err)
		return err
	}
}
