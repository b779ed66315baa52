package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"weatherdash/internal/modules/weather/types"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	forecastCount  = 5
)

var ErrCityNotFound = errors.New("city not found")

type Fetcher interface {
	Fetch(ctx context.Context, city string) (types.WeatherReport, error)
}

// OpenWeatherMap fetches current conditions and a short forecast. Both calls
// draw from one limiter so a lookup costs two tokens.
type OpenWeatherMap struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewOpenWeatherMap(apiKey, baseURL string, timeout time.Duration, rps float64, burst int) *OpenWeatherMap {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenWeatherMap{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (p *OpenWeatherMap) Fetch(ctx context.Context, city string) (types.WeatherReport, error) {
	current, err := p.current(ctx, city)
	if err != nil {
		return types.WeatherReport{}, err
	}
	forecast, err := p.forecast(ctx, city)
	if err != nil {
		return types.WeatherReport{}, err
	}
	return types.WeatherReport{Current: current, Forecast: forecast}, nil
}

type owmCondition struct {
	Description string `json:"description"`
}

type owmMain struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

func describe(conds []owmCondition) string {
	if len(conds) == 0 {
		return ""
	}
	return conds[0].Description
}

func (p *OpenWeatherMap) current(ctx context.Context, city string) (types.CurrentWeather, error) {
	var resp struct {
		Name    string         `json:"name"`
		Main    owmMain        `json:"main"`
		Weather []owmCondition `json:"weather"`
	}
	if err := p.get(ctx, "/weather", url.Values{"q": {city}}, &resp); err != nil {
		return types.CurrentWeather{}, err
	}
	return types.CurrentWeather{
		City:       resp.Name,
		Temp:       resp.Main.Temp,
		Humidity:   resp.Main.Humidity,
		Conditions: describe(resp.Weather),
	}, nil
}

func (p *OpenWeatherMap) forecast(ctx context.Context, city string) ([]types.ForecastEntry, error) {
	var resp struct {
		List []struct {
			Main    owmMain        `json:"main"`
			Weather []owmCondition `json:"weather"`
			DtTxt   string         `json:"dt_txt"`
		} `json:"list"`
	}
	params := url.Values{"q": {city}, "cnt": {fmt.Sprint(forecastCount)}}
	if err := p.get(ctx, "/forecast", params, &resp); err != nil {
		return nil, err
	}
	out := make([]types.ForecastEntry, 0, len(resp.List))
	for _, item := range resp.List {
		out = append(out, types.ForecastEntry{
			Date:       item.DtTxt,
			Temp:       item.Main.Temp,
			Conditions: describe(item.Weather),
		})
	}
	return out, nil
}

func (p *OpenWeatherMap) get(ctx context.Context, path string, params url.Values, dst any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}

	params.Set("appid", p.apiKey)
	params.Set("units", "metric")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("close upstream response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrCityNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

var _ Fetcher = (*OpenWeatherMap)(nil)
