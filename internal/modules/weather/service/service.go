package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"weatherdash/internal/modules/weather/repository"
	"weatherdash/internal/modules/weather/types"
)

var ErrMissingCity = errors.New("city is required")

// Lookuper returns a weather report and whether it was served from cache.
type Lookuper interface {
	Lookup(ctx context.Context, city string) (types.WeatherReport, bool, error)
}

// EventPublisher announces recorded searches. Implementations may be offline.
type EventPublisher interface {
	IsConnected() bool
	PublishSearchEvent(ctx context.Context, event types.SearchEvent) error
}

type Service struct {
	lookup       Lookuper
	repository   repository.HistoryRepository
	publisher    EventPublisher
	historyLimit int
	logger       *slog.Logger
	now          func() time.Time
}

// NewService wires the lookup path. publisher may be nil when MQTT is disabled.
func NewService(lookup Lookuper, repo repository.HistoryRepository, publisher EventPublisher, historyLimit int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		lookup:       lookup,
		repository:   repo,
		publisher:    publisher,
		historyLimit: historyLimit,
		logger:       logger,
		now:          time.Now,
	}
}

// Weather resolves city and records the search. Recording and publishing
// failures are logged; the caller still gets the report.
func (s *Service) Weather(ctx context.Context, city string) (types.WeatherReport, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return types.WeatherReport{}, ErrMissingCity
	}

	report, cached, err := s.lookup.Lookup(ctx, city)
	if err != nil {
		return types.WeatherReport{}, fmt.Errorf("lookup %q: %w", city, err)
	}

	ts := s.now().UTC()
	if err := s.repository.InsertSearch(ctx, city, ts, cached); err != nil {
		s.logger.Error("failed to record search", "city", city, "error", err)
	}
	s.publish(ctx, types.SearchEvent{City: city, Timestamp: ts, Cached: cached})

	return report, nil
}

func (s *Service) publish(ctx context.Context, event types.SearchEvent) {
	if s.publisher == nil || !s.publisher.IsConnected() {
		return
	}
	if err := s.publisher.PublishSearchEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish search event", "city", event.City, "error", err)
	}
}

func (s *Service) History(ctx context.Context) ([]types.HistoryEntry, error) {
	entries, err := s.repository.ListRecent(ctx, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
