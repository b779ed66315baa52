package weather

import (
	"database/sql"
	"log/slog"
	"net/http"

	"weatherdash/internal/config"
	"weatherdash/internal/modules/weather/cache"
	"weatherdash/internal/modules/weather/controller"
	"weatherdash/internal/modules/weather/fetcher"
	"weatherdash/internal/modules/weather/repository"
	"weatherdash/internal/modules/weather/service"
)

// RegisterFeature mounts the weather and history API. publisher is nil when
// MQTT is disabled.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, cfg config.Config, publisher service.EventPublisher, logger *slog.Logger) {
	upstream := fetcher.NewOpenWeatherMap(
		cfg.OpenWeatherAPIKey,
		cfg.OpenWeatherBaseURL,
		cfg.HTTPClientTimeout,
		cfg.OpenWeatherRPS,
		cfg.OpenWeatherBurst,
	)
	cached := cache.NewCachedFetcher(upstream, cfg.WeatherCacheTTL, logger)
	historyRepository := repository.NewRepository(db)
	weatherService := service.NewService(cached, historyRepository, publisher, cfg.HistoryLimit, logger)
	weatherController := controller.NewWeatherController(weatherService)
	weatherController.RegisterRoutes(mux)
}
