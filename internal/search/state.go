package search

import (
	"slices"

	"weatherdash/internal/modules/weather/types"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusSuccess Status = "success"
)

// State is everything the dashboard renders. Only the controller loop mutates
// it; readers receive copies from Controller.Snapshot.
type State struct {
	Query    string                `json:"query"`
	Current  *types.CurrentWeather `json:"current"`
	Forecast []types.ForecastEntry `json:"forecast"`
	History  []types.HistoryEntry  `json:"history"`
	Loading  bool                  `json:"loading"`
	// HistoryPending counts history refreshes that have not resolved yet.
	HistoryPending int `json:"history_pending"`
	// Error is empty when absent.
	Error string `json:"error,omitempty"`
}

func (s State) HasError() bool { return s.Error != "" }

// Busy reports whether a later snapshot is still expected to differ: a
// lookup or a history refresh is in flight.
func (s State) Busy() bool { return s.Loading || s.HistoryPending > 0 }

// Status folds the request flags into a single value. Loading wins because
// Loading implies no error.
func (s State) Status() Status {
	switch {
	case s.Loading:
		return StatusLoading
	case s.HasError():
		return StatusError
	case s.Current != nil:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

func (s State) clone() State {
	out := s
	if s.Current != nil {
		cw := *s.Current
		out.Current = &cw
	}
	out.Forecast = slices.Clone(s.Forecast)
	out.History = slices.Clone(s.History)
	return out
}
