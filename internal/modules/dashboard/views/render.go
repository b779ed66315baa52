package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"weatherdash/internal/modules/weather/types"
	"weatherdash/internal/search"
)

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

const (
	labelSubmit  = "Get Weather"
	labelLoading = "Loading..."
	historyTime  = "2006-01-02 15:04:05 MST"
)

type HistoryRow struct {
	City string
	Time string
}

// PageData is the view model for the dashboard page and its state partial.
type PageData struct {
	Query   string
	Loading bool
	// Polling keeps the state partial refreshing while a lookup or a history
	// refresh has yet to land.
	Polling        bool
	Error          string
	Current        *types.CurrentWeather
	Forecast       []types.ForecastEntry
	History        []HistoryRow
	SubmitDisabled bool
	SubmitLabel    string
}

// NewPageData derives what the page shows from a controller snapshot.
func NewPageData(s search.State, loc *time.Location) *PageData {
	if loc == nil {
		loc = time.Local
	}
	d := &PageData{
		Query:          s.Query,
		Loading:        s.Loading,
		Polling:        s.Busy(),
		Error:          s.Error,
		Current:        s.Current,
		Forecast:       s.Forecast,
		SubmitDisabled: s.Loading || strings.TrimSpace(s.Query) == "",
		SubmitLabel:    labelSubmit,
	}
	if s.Loading {
		d.SubmitLabel = labelLoading
	}
	for _, h := range s.History {
		row := HistoryRow{City: h.City}
		if !h.Timestamp.IsZero() {
			row.Time = h.Timestamp.In(loc).Format(historyTime)
		}
		d.History = append(d.History, row)
	}
	return d
}

func RenderDashboard(w io.Writer, data *PageData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderStatePartial executes only the state partial into w.
// Use for HTMX fragment refresh while a lookup is in flight.
func RenderStatePartial(w io.Writer, data *PageData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/state.html", data)
}

// RenderSubmitPartial executes only the submit button partial into w.
func RenderSubmitPartial(w io.Writer, data *PageData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/submit.html", data)
}

// ResetTemplates drops the loaded templates. Renders fail until LoadTemplates
// runs again.
func ResetTemplates() {
	dashboardTmpl = nil
}
