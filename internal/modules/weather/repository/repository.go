package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"weatherdash/internal/modules/weather/types"
)

//go:embed sql/insert-search.sql
var insertSearchSQL string

//go:embed sql/list-recent-searches.sql
var listRecentSearchesSQL string

var ErrEmptyCity = errors.New("city is required")

// tsLayout is fixed width so ORDER BY ts sorts chronologically.
const tsLayout = "2006-01-02T15:04:05.000Z07:00"

type HistoryRepository interface {
	InsertSearch(ctx context.Context, city string, ts time.Time, cached bool) error
	ListRecent(ctx context.Context, limit int) ([]types.HistoryEntry, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) HistoryRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertSearch(ctx context.Context, city string, ts time.Time, cached bool) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrEmptyCity
	}
	if _, err := r.db.ExecContext(ctx, insertSearchSQL, city, ts.UTC().Format(tsLayout), cached); err != nil {
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

// ListRecent returns at most limit searches, newest first. It never returns a
// nil slice so the API encodes an empty history as [].
func (r *repositoryImpl) ListRecent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, listRecentSearchesSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close search history rows", "error", err)
		}
	}()

	out := make([]types.HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e  types.HistoryEntry
			ts string
		)
		if err := rows.Scan(&e.City, &ts); err != nil {
			return nil, err
		}
		e.Timestamp, err = time.Parse(tsLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
