package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"weatherdash/internal/modules/weather/fetcher"
	"weatherdash/internal/modules/weather/service"
	"weatherdash/internal/utils"
)

func (c *weatherControllerImpl) handleWeather(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing 'city' query parameter")
		return
	}

	report, err := c.service.Weather(r.Context(), city)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingCity):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, fetcher.ErrCityNotFound):
		utils.WriteError(w, http.StatusNotFound, "city not found: "+city)
		return
	default:
		slog.Error("weather lookup failed", "city", city, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, report)
}

func (c *weatherControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := c.service.History(r.Context())
	if err != nil {
		slog.Error("history lookup failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusOK, entries)
}
