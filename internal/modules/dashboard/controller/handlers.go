package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"weatherdash/internal/modules/dashboard/views"
	"weatherdash/internal/search"
	"weatherdash/internal/utils"
)

type stateResponse struct {
	search.State
	Status search.Status `json:"status"`
}

func (c *dashboardControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := views.NewPageData(c.search.Snapshot(), c.location)

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

// handleSearch binds the submitted text to the query and starts a lookup.
// A blank city only updates the input. Either way the browser is sent back
// to the page so a reload never resubmits the form.
func (c *dashboardControllerImpl) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	city := r.PostFormValue("city")

	err := c.search.SubmitQuery(r.Context(), city)
	if errors.Is(err, search.ErrEmptyQuery) {
		err = c.search.SetQuery(r.Context(), city)
	}
	if err != nil {
		slog.Error("dashboard: submit query failed", "city", city, "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "search is unavailable")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *dashboardControllerImpl) handleStatePartial(w http.ResponseWriter, r *http.Request) {
	data := views.NewPageData(c.search.Snapshot(), c.location)

	var buf bytes.Buffer
	if err := views.RenderStatePartial(&buf, data); err != nil {
		slog.Error("state partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

// handleQueryPartial binds the input text as it is typed and answers with the
// submit button for the new state.
func (c *dashboardControllerImpl) handleQueryPartial(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid form")
		return
	}
	if err := c.search.SetQuery(r.Context(), r.PostFormValue("city")); err != nil {
		slog.Error("dashboard: set query failed", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "search is unavailable")
		return
	}
	data := views.NewPageData(c.search.Snapshot(), c.location)

	var buf bytes.Buffer
	if err := views.RenderSubmitPartial(&buf, data); err != nil {
		slog.Error("submit partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *dashboardControllerImpl) handleState(w http.ResponseWriter, r *http.Request) {
	s := c.search.Snapshot()
	utils.WriteJSON(w, http.StatusOK, stateResponse{State: s, Status: s.Status()})
}
