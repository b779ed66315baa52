package controller

import (
	"context"
	"net/http"
	"time"

	"weatherdash/internal/search"
)

// SearchController is the part of search.Controller the dashboard drives.
type SearchController interface {
	Snapshot() search.State
	SetQuery(ctx context.Context, text string) error
	SubmitQuery(ctx context.Context, query string) error
}

type DashboardController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type dashboardControllerImpl struct {
	search   SearchController
	location *time.Location
}

func NewDashboardController(search SearchController, location *time.Location) DashboardController {
	return &dashboardControllerImpl{search: search, location: location}
}

func (c *dashboardControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("POST /search", c.handleSearch)
	mux.HandleFunc("GET /partials/state", c.handleStatePartial)
	mux.HandleFunc("POST /partials/query", c.handleQueryPartial)
	mux.HandleFunc("GET /api/state", c.handleState)
}
