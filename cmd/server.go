package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"apartment-booking/internal/wire"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.logger.Info("Starting application",
				zap.String("app", rt.config.App.Name),
				zap.String("port", rt.config.App.Port),
				zap.Bool("debug", rt.config.App.Debug),
			)

			integrations, err := rt.newIntegrations(ctx)
			if err != nil {
				return err
			}

			app, err := wire.Wiring(rt.repo, integrations, rt.config, wire.NewRegistry(), rt.logger)
			if err != nil {
				return fmt.Errorf("wire application: %w", err)
			}

			err = APIServer(ctx, app.Router, rt.config.App.Port, rt.logger)

			rt.logger.Info("Waiting for pending notifications")
			app.Service.Notifier.Wait()
			return err
		},
	}
}

// APIServer serves handler until ctx is cancelled, then drains in-flight
// requests.
func APIServer(ctx context.Context, handler http.Handler, port string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
