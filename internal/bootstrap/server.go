package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/FikranSE/bookingapp/config"
)

const defaultShutdownTimeout = 5 * time.Second

// Run serves handler on cfg.Address and blocks until ctx is canceled or the
// server fails. On cancellation in-flight requests get cfg.ShutdownTimeout to
// finish.
func Run(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, log *slog.Logger) error {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.Address, err)
	}
	return Serve(ctx, lis, cfg.ShutdownTimeout, handler, log)
}

func Serve(ctx context.Context, lis net.Listener, shutdownTimeout time.Duration, handler http.Handler, log *slog.Logger) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()
	log.Info("http server listening", "address", lis.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
