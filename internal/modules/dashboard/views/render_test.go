package views

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"weatherdash/internal/modules/weather/types"
	"weatherdash/internal/search"
)

func TestLoadTemplates_success(t *testing.T) {
	err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates() = %v; want nil", err)
	}
	if dashboardTmpl == nil {
		t.Fatal("LoadTemplates() left dashboardTmpl nil")
	}
}

func TestLoadTemplates_failure_sub(t *testing.T) {
	// Empty FS has no "templates" directory; ParseFS finds nothing.
	err := loadTemplatesFromFS(fstest.MapFS{}, "templates")
	if err == nil {
		t.Fatal("loadTemplatesFromFS(emptyFS, \"templates\") = nil; want error")
	}
}

func TestLoadTemplates_failure_parse(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/base.html":           {Data: []byte("{{ .")},
		"templates/partials/state.html": {Data: []byte("ok")},
	}
	err := loadTemplatesFromFS(badFS, "templates")
	if err == nil {
		t.Fatal("loadTemplatesFromFS(badFS, \"templates\") = nil; want error")
	}
}

func TestRenderDashboard_notLoaded(t *testing.T) {
	prev := dashboardTmpl
	dashboardTmpl = nil
	t.Cleanup(func() { dashboardTmpl = prev })

	var buf bytes.Buffer
	if err := RenderDashboard(&buf, &PageData{}); err == nil || !strings.Contains(err.Error(), "not loaded") {
		t.Fatalf("RenderDashboard() = %v; want not loaded error", err)
	}
	if err := RenderStatePartial(&buf, &PageData{}); err == nil || !strings.Contains(err.Error(), "not loaded") {
		t.Fatalf("RenderStatePartial() = %v; want not loaded error", err)
	}
	if err := RenderSubmitPartial(&buf, &PageData{}); err == nil || !strings.Contains(err.Error(), "not loaded") {
		t.Fatalf("RenderSubmitPartial() = %v; want not loaded error", err)
	}
}

func render(t *testing.T, s search.State) string {
	t.Helper()
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}
	var buf bytes.Buffer
	if err := RenderDashboard(&buf, NewPageData(s, time.UTC)); err != nil {
		t.Fatalf("RenderDashboard: %v", err)
	}
	return buf.String()
}

func TestRenderDashboard_idle(t *testing.T) {
	out := render(t, search.State{})

	for _, want := range []string{"<!DOCTYPE html>", "Weather Dashboard", `name="city"`, "Get Weather", "disabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	for _, absent := range []string{"Loading weather data...", "Error:", "Current Weather in", "5-Day Forecast", "Search History", `hx-trigger="every 1s"`} {
		if strings.Contains(out, absent) {
			t.Errorf("idle output contains %q", absent)
		}
	}
}

func TestRenderDashboard_loading(t *testing.T) {
	out := render(t, search.State{Query: "London", Loading: true})

	for _, want := range []string{"Loading...", "Loading weather data...", `hx-trigger="every 1s"`, `value="London"`} {
		if !strings.Contains(out, want) {
			t.Errorf("loading output missing %q", want)
		}
	}
	if strings.Contains(out, ">Get Weather<") {
		t.Error("loading output shows idle label")
	}
	if !strings.Contains(out, `<button id="search-submit" type="submit" disabled>`) {
		t.Error("submit not disabled while loading")
	}
}

func TestRenderDashboard_success(t *testing.T) {
	s := search.State{
		Query:    "London",
		Current:  &types.CurrentWeather{City: "London", Temp: 15.2, Humidity: 72, Conditions: "light rain"},
		Forecast: []types.ForecastEntry{{Date: "2024-01-02 12:00:00", Temp: 14, Conditions: "cloudy"}},
		History:  []types.HistoryEntry{{City: "London", Timestamp: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)}},
	}
	out := render(t, s)

	for _, want := range []string{
		"Current Weather in London",
		"Temperature: 15.2°C",
		"Humidity: 72%",
		"Conditions: light rain",
		"5-Day Forecast",
		"2024-01-02 12:00:00",
		"Search History",
		"London - 2024-01-02 10:00:00 UTC",
		`<button id="search-submit" type="submit">Get Weather</button>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "Error:") {
		t.Error("success output shows an error")
	}
}

func TestRenderDashboard_errorKeepsPreviousWeather(t *testing.T) {
	s := search.State{
		Query:   "Nowhere",
		Current: &types.CurrentWeather{City: "London"},
		Error:   search.WeatherFailureMessage,
	}
	out := render(t, s)

	if !strings.Contains(out, "Error: Failed to fetch weather data") {
		t.Error("error message not rendered")
	}
	if !strings.Contains(out, "Current Weather in London") {
		t.Error("previous weather hidden on error")
	}
}

func TestRenderDashboard_emptyHistoryHidesRegion(t *testing.T) {
	out := render(t, search.State{History: []types.HistoryEntry{}})

	if strings.Contains(out, "Search History") {
		t.Error("empty history rendered a history region")
	}
}

func TestRenderDashboard_escapesInput(t *testing.T) {
	out := render(t, search.State{Query: `<script>alert(1)</script>`})

	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Error("query rendered unescaped")
	}
}

func TestRenderStatePartial_noLayout(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}
	var buf bytes.Buffer
	if err := RenderStatePartial(&buf, NewPageData(search.State{Query: "Oslo"}, nil)); err != nil {
		t.Fatalf("RenderStatePartial: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<!DOCTYPE html>") {
		t.Error("partial includes page layout")
	}
	if !strings.Contains(out, `id="dashboard-state"`) {
		t.Error("partial missing swap target")
	}
}

func TestRenderDashboard_pollsUntilHistoryLands(t *testing.T) {
	out := render(t, search.State{Query: "London", Current: &types.CurrentWeather{City: "London"}, HistoryPending: 1})

	if !strings.Contains(out, `hx-trigger="every 1s"`) {
		t.Error("page stopped polling with a history refresh in flight")
	}
	if strings.Contains(out, "Loading weather data...") {
		t.Error("history refresh shown as a weather lookup")
	}
	if !strings.Contains(out, `<button id="search-submit" type="submit">Get Weather</button>`) {
		t.Error("submit disabled by a history refresh")
	}
}

func TestRenderDashboard_inputBindsThroughServer(t *testing.T) {
	out := render(t, search.State{Query: "Ro"})

	if strings.Contains(out, "oninput") {
		t.Error("input carries inline script")
	}
	for _, want := range []string{`hx-post="/partials/query"`, `hx-target="#search-submit"`} {
		if !strings.Contains(out, want) {
			t.Errorf("input missing %q", want)
		}
	}
}

func TestRenderSubmitPartial(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}
	tests := []struct {
		name  string
		state search.State
		want  string
	}{
		{name: "blank", state: search.State{Query: " "}, want: `<button id="search-submit" type="submit" disabled>Get Weather</button>`},
		{name: "typed", state: search.State{Query: "Rome"}, want: `<button id="search-submit" type="submit">Get Weather</button>`},
		{name: "loading", state: search.State{Query: "Rome", Loading: true}, want: `<button id="search-submit" type="submit" disabled>Loading...</button>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderSubmitPartial(&buf, NewPageData(tt.state, time.UTC)); err != nil {
				t.Fatalf("RenderSubmitPartial: %v", err)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("RenderSubmitPartial() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestNewPageData(t *testing.T) {
	tests := []struct {
		name         string
		state        search.State
		wantDisabled bool
		wantLabel    string
		wantPolling  bool
	}{
		{name: "empty query", state: search.State{}, wantDisabled: true, wantLabel: "Get Weather"},
		{name: "blank query", state: search.State{Query: "   "}, wantDisabled: true, wantLabel: "Get Weather"},
		{name: "query", state: search.State{Query: "Rome"}, wantDisabled: false, wantLabel: "Get Weather"},
		{name: "loading", state: search.State{Query: "Rome", Loading: true}, wantDisabled: true, wantLabel: "Loading...", wantPolling: true},
		{name: "history pending", state: search.State{Query: "Rome", HistoryPending: 1}, wantDisabled: false, wantLabel: "Get Weather", wantPolling: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPageData(tt.state, time.UTC)
			if got.SubmitDisabled != tt.wantDisabled {
				t.Errorf("SubmitDisabled = %v; want %v", got.SubmitDisabled, tt.wantDisabled)
			}
			if got.SubmitLabel != tt.wantLabel {
				t.Errorf("SubmitLabel = %q; want %q", got.SubmitLabel, tt.wantLabel)
			}
			if got.Polling != tt.wantPolling {
				t.Errorf("Polling = %v; want %v", got.Polling, tt.wantPolling)
			}
		})
	}

	t.Run("zero timestamp renders blank time", func(t *testing.T) {
		got := NewPageData(search.State{History: []types.HistoryEntry{{City: "Rome"}}}, time.UTC)
		if len(got.History) != 1 || got.History[0].Time != "" {
			t.Errorf("History = %+v", got.History)
		}
	})
}
