package controller

import (
	"context"
	"net/http"

	"weatherdash/internal/modules/weather/types"
)

type WeatherService interface {
	Weather(ctx context.Context, city string) (types.WeatherReport, error)
	History(ctx context.Context) ([]types.HistoryEntry, error)
}

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type weatherControllerImpl struct {
	service WeatherService
}

func NewWeatherController(service WeatherService) WeatherController {
	return &weatherControllerImpl{service: service}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/weather", c.handleWeather)
	mux.HandleFunc("GET /api/history", c.handleHistory)
}
