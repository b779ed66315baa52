package dashboard

import (
	"net/http"
	"time"

	"weatherdash/internal/modules/dashboard/controller"
	"weatherdash/internal/search"
)

func RegisterFeature(mux *http.ServeMux, searchController *search.Controller) {
	dashboardController := controller.NewDashboardController(searchController, time.Local)
	dashboardController.RegisterRoutes(mux)
}
