package app

import (
	"context"
	"fmt"
	"time"

	"contentgen/internal/http/handlers"
	"contentgen/internal/http/httpapi"
	"contentgen/internal/infra"
)

// Serve runs the HTTP API until ctx is cancelled, then drains in-flight
// requests. Runs already accepted keep the base context until shutdown.
func Serve(ctx context.Context, cfg *infra.Config, logger *infra.Logger) error {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	runner, err := BuildRunner(cfg, Overrides{}, logger)
	if err != nil {
		return err
	}
	runs, closeRuns, err := OpenRunRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRuns()

	app := handlers.NewApp(ctx, runner, runs, logger)
	app.OutputDir = cfg.OutputDir
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, httpapi.OptionsFromConfig(cfg)))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), max(cfg.HTTPIdleTimeout, 5*time.Second))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
