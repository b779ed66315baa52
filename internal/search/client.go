package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weatherdash/internal/modules/weather/types"
)

// WeatherService is the remote collaborator the controller talks to.
type WeatherService interface {
	FetchWeather(ctx context.Context, city string) (types.WeatherReport, error)
	FetchHistory(ctx context.Context) ([]types.HistoryEntry, error)
}

// TransportError means the request never produced a usable response:
// connection failures, timeouts and undecodable bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError means the service answered with a non-2xx status.
type ServiceError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// HTTPClient implements WeatherService against the /api/weather and
// /api/history endpoints.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) FetchWeather(ctx context.Context, city string) (types.WeatherReport, error) {
	params := url.Values{}
	params.Set("city", city)

	var report types.WeatherReport
	if err := c.getJSON(ctx, "fetch weather", "/api/weather", params, &report); err != nil {
		return types.WeatherReport{}, err
	}
	return report, nil
}

func (c *HTTPClient) FetchHistory(ctx context.Context) ([]types.HistoryEntry, error) {
	var history []types.HistoryEntry
	if err := c.getJSON(ctx, "fetch history", "/api/history", nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

var _ WeatherService = (*HTTPClient)(nil)
