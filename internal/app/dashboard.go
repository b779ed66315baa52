package app

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"weatherdash/internal/config"
	"weatherdash/internal/httpapi"
	"weatherdash/internal/modules/dashboard"
	"weatherdash/internal/modules/dashboard/views"
	"weatherdash/internal/search"
)

// RunDashboard serves the HTML front end, backed by a search controller that
// talks to the weather API at cfg.WeatherAPIURL.
func RunDashboard(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"dashboardAddr", cfg.DashboardAddr,
		"weatherAPIURL", cfg.WeatherAPIURL,
		"httpClientTimeout", cfg.HTTPClientTimeout,
	)

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	client := search.NewHTTPClient(cfg.WeatherAPIURL, cfg.HTTPClientTimeout)
	controller := search.NewController(client, logger)

	mux := httpapi.NewMux(nil)
	dashboard.RegisterFeature(mux, controller)
	srv := httpapi.NewServer(cfg.DashboardAddr, mux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return controller.Run(gctx) })
	g.Go(func() error { return httpapi.Serve(gctx, srv) })

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}
