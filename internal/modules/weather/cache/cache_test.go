package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"weatherdash/internal/modules/weather/types"
)

type countingFetcher struct {
	calls  []string
	err    error
	report types.WeatherReport
}

func (f *countingFetcher) Fetch(_ context.Context, city string) (types.WeatherReport, error) {
	f.calls = append(f.calls, city)
	if f.err != nil {
		return types.WeatherReport{}, f.err
	}
	r := f.report
	r.Current.City = city
	return r, nil
}

func TestLookup_HitWithinTTL(t *testing.T) {
	src := &countingFetcher{}
	c := NewCachedFetcher(src, time.Minute, nil)
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, cached, err := c.Lookup(context.Background(), "London")
	if err != nil || cached {
		t.Fatalf("first Lookup: cached=%v err=%v; want miss", cached, err)
	}

	now = now.Add(30 * time.Second)
	got, cached, err := c.Lookup(context.Background(), "  LONDON ")
	if err != nil {
		t.Fatalf("second Lookup: %v", err)
	}
	if !cached {
		t.Error("second Lookup not cached; want hit for case-insensitive key")
	}
	if got.Current.City != "London" {
		t.Errorf("City = %q; want cached London", got.Current.City)
	}
	if len(src.calls) != 1 {
		t.Errorf("source calls = %d; want 1", len(src.calls))
	}
	if c.hits != 1 || c.misses != 1 {
		t.Errorf("hits/misses = %d/%d; want 1/1", c.hits, c.misses)
	}
}

func TestLookup_ExpiredEntryRefetches(t *testing.T) {
	src := &countingFetcher{}
	c := NewCachedFetcher(src, time.Minute, nil)
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, _, err := c.Lookup(context.Background(), "Paris"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(time.Minute)
	_, cached, err := c.Lookup(context.Background(), "Paris")
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("Lookup after TTL reported cached")
	}
	if len(src.calls) != 2 {
		t.Errorf("source calls = %d; want 2", len(src.calls))
	}
}

func TestLookup_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	src := &countingFetcher{err: boom}
	c := NewCachedFetcher(src, time.Hour, nil)

	for i := 0; i < 2; i++ {
		if _, _, err := c.Lookup(context.Background(), "Oslo"); !errors.Is(err, boom) {
			t.Fatalf("Lookup err = %v; want boom", err)
		}
	}
	if len(src.calls) != 2 {
		t.Errorf("source calls = %d; want 2", len(src.calls))
	}
}

func TestFetch_DelegatesToLookup(t *testing.T) {
	src := &countingFetcher{}
	c := NewCachedFetcher(src, time.Hour, nil)

	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), "Rome"); err != nil {
			t.Fatal(err)
		}
	}
	if len(src.calls) != 1 {
		t.Errorf("source calls = %d; want 1", len(src.calls))
	}
}

func TestLookup_EvictsExpiredEntries(t *testing.T) {
	src := &countingFetcher{}
	c := NewCachedFetcher(src, time.Minute, nil)
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for _, city := range []string{"Paris", "Oslo", "Rome"} {
		if _, _, err := c.Lookup(context.Background(), city); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(c.items); n != 3 {
		t.Fatalf("Len() = %d; want 3", n)
	}

	now = now.Add(2 * time.Minute)
	src.err = errors.New("upstream down")
	if _, _, err := c.Lookup(context.Background(), "paris"); err == nil {
		t.Fatal("Lookup succeeded; want upstream error")
	}
	if _, ok := c.items["paris"]; ok {
		t.Error("expired entry kept after a failed refetch")
	}
	if n := len(c.items); n != 2 {
		t.Errorf("Len() = %d; want 2 after dropping the looked-up entry", n)
	}

	src.err = nil
	if _, _, err := c.Lookup(context.Background(), "Berlin"); err != nil {
		t.Fatal(err)
	}
	if n := len(c.items); n != 1 {
		t.Errorf("Len() = %d; want only Berlin after sweep", n)
	}
	if _, ok := c.items["berlin"]; !ok {
		t.Error("fresh entry missing after sweep")
	}
}

func TestLookup_LogsCounters(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewCachedFetcher(&countingFetcher{}, time.Hour, logger)

	for i := 0; i < 2; i++ {
		if _, _, err := c.Lookup(context.Background(), "Rome"); err != nil {
			t.Fatal(err)
		}
	}

	var records []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("decode log: %v", err)
		}
		records = append(records, rec)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d; want 2", len(records))
	}
	miss, hit := records[0], records[1]
	if miss["msg"] != "weather cache miss" || miss["hits"] != float64(0) || miss["misses"] != float64(1) {
		t.Errorf("miss record = %v", miss)
	}
	if hit["msg"] != "weather cache hit" || hit["hits"] != float64(1) || hit["misses"] != float64(1) {
		t.Errorf("hit record = %v", hit)
	}
}
