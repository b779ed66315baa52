package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CurrentWeather is a point-in-time observation for one city.
type CurrentWeather struct {
	City       string  `json:"city"`
	Temp       float64 `json:"temp"`
	Humidity   float64 `json:"humidity"`
	Conditions string  `json:"conditions"`
}

// ForecastEntry is one step of the short-term forecast.
type ForecastEntry struct {
	Date       string  `json:"date"`
	Temp       float64 `json:"temp"`
	Conditions string  `json:"conditions"`
}

// WeatherReport is the body of GET /api/weather.
type WeatherReport struct {
	Current  CurrentWeather  `json:"current"`
	Forecast []ForecastEntry `json:"forecast"`
}

// HistoryEntry is one row of GET /api/history.
type HistoryEntry struct {
	City      string    `json:"city"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchEvent is published on the search topic each time a lookup is recorded.
type SearchEvent struct {
	City      string    `json:"city"`
	Timestamp time.Time `json:"timestamp"`
	Cached    bool      `json:"cached"`
}

// UnmarshalJSON accepts ISO-8601 strings (with or without zone) as well as
// epoch seconds or milliseconds given either as a number or a string.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		City      string          `json:"city"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return fmt.Errorf("history entry %q: %w", raw.City, err)
	}
	h.City = raw.City
	h.Timestamp = ts
	return nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp decodes a raw JSON timestamp. Zone-less values are read as UTC.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}, err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return time.Time{}, nil
		}
		if n, err := strconv.ParseFloat(str, 64); err == nil {
			return fromEpoch(n), nil
		}
		for _, layout := range isoLayouts {
			if t, err := time.ParseInLocation(layout, str, time.UTC); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", str)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %s", s)
	}
	return fromEpoch(n), nil
}

// Values above 1e12 cannot be seconds (year 33658) and are taken as milliseconds.
func fromEpoch(n float64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(int64(n)).UTC()
	}
	sec := int64(n)
	nsec := int64((n - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
