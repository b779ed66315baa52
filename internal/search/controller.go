package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"weatherdash/internal/modules/weather/types"
)

// WeatherFailureMessage is shown for every failed weather lookup, whatever
// the cause. The cause itself only goes to the log.
const WeatherFailureMessage = "Failed to fetch weather data"

var (
	ErrEmptyQuery = errors.New("search: empty query")
	ErrStopped    = errors.New("search: controller stopped")
)

// Result is what a task hands back to the loop: a value or a typed failure.
type Result[T any] struct {
	Value T
	Err   error
}

func runTask[T any](ctx context.Context, fn func(context.Context) (T, error)) Result[T] {
	v, err := fn(ctx)
	return Result[T]{Value: v, Err: err}
}

type event struct {
	apply func(*State)
	// ack is closed once apply's effect is visible to Snapshot. Nil for
	// task continuations.
	ack chan struct{}
}

// Controller owns the search state. All mutation happens on the goroutine
// running Run, one continuation at a time; network calls run as tasks whose
// results are posted back to that loop.
//
// Overlapping SubmitQuery calls are not cancelled or ordered: each applies its
// own result when it resolves, so the last response to arrive wins even if it
// belongs to the earlier submission.
type Controller struct {
	service WeatherService
	logger  *slog.Logger

	events  chan event
	pending sync.WaitGroup
	done    chan struct{}
	runOnce sync.Once

	// taskCtx is set by Run before the first event is applied and only read
	// from the loop goroutine.
	taskCtx context.Context
	state   State

	mu       sync.RWMutex
	snapshot State
}

func NewController(service WeatherService, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		service: service,
		logger:  logger,
		events:  make(chan event),
		done:    make(chan struct{}),
	}
	// Reserved for the initial history load issued by Run.
	c.pending.Add(1)
	return c
}

// Run drives the controller until ctx is done. It issues the initial history
// refresh before processing any queued operation.
func (c *Controller) Run(ctx context.Context) error {
	started := false
	c.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("search: controller already running")
	}
	defer close(c.done)

	c.taskCtx = ctx
	c.startHistoryTask(&c.state)
	c.publish()
	c.pending.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			ev.apply(&c.state)
			c.publish()
			if ev.ack != nil {
				close(ev.ack)
			}
			c.pending.Done()
		}
	}
}

// SubmitQuery starts a weather lookup for query. A blank query is a no-op and
// returns ErrEmptyQuery. The call returns once the loading state is visible
// to Snapshot; it does not wait for the lookup.
func (c *Controller) SubmitQuery(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return c.post(ctx, func(s *State) {
		s.Query = query
		s.Loading = true
		s.Error = ""
		c.startWeatherTask(query)
	})
}

// RefreshHistory reloads the search history. Failures are logged, never shown.
func (c *Controller) RefreshHistory(ctx context.Context) error {
	return c.post(ctx, func(s *State) {
		c.startHistoryTask(s)
	})
}

// SetQuery updates the text bound to the search input without searching.
func (c *Controller) SetQuery(ctx context.Context, text string) error {
	return c.post(ctx, func(s *State) {
		s.Query = text
	})
}

// Snapshot returns a copy of the state as of the last applied continuation.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.clone()
}

// Wait blocks until the initial history load, every queued operation and
// every task they spawned have been applied, or dropped because the
// controller stopped. It only returns once Run has been called.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// post hands apply to the loop and returns after its effect has been
// published. The loop applies an event in the same iteration it receives it,
// so the ack always follows a successful send.
func (c *Controller) post(ctx context.Context, apply func(*State)) error {
	ack := make(chan struct{})
	c.pending.Add(1)
	select {
	case c.events <- event{apply: apply, ack: ack}:
		<-ack
		return nil
	case <-c.done:
		c.pending.Done()
		return ErrStopped
	case <-ctx.Done():
		c.pending.Done()
		return ctx.Err()
	}
}

// Called from the loop only.
func (c *Controller) startWeatherTask(city string) {
	c.pending.Add(1)
	ctx := c.taskCtx
	go func() {
		res := runTask(ctx, func(ctx context.Context) (types.WeatherReport, error) {
			return c.service.FetchWeather(ctx, city)
		})
		c.deliver(func(s *State) { c.applyWeather(s, city, res) })
	}()
}

// Called from the loop only. s.HistoryPending stays raised until the result
// is applied so renderers know a refresh is still on its way.
func (c *Controller) startHistoryTask(s *State) {
	s.HistoryPending++
	c.pending.Add(1)
	ctx := c.taskCtx
	go func() {
		res := runTask(ctx, c.service.FetchHistory)
		c.deliver(func(s *State) { c.applyHistory(s, res) })
	}()
}

// deliver posts a task continuation. The pending slot was taken when the task
// started.
func (c *Controller) deliver(apply func(*State)) {
	select {
	case c.events <- event{apply: apply}:
	case <-c.done:
		c.pending.Done()
	}
}

func (c *Controller) applyWeather(s *State, city string, res Result[types.WeatherReport]) {
	if res.Err != nil {
		c.logger.Warn("weather lookup failed", "city", city, "error", res.Err)
		s.Error = WeatherFailureMessage
	} else {
		current := res.Value.Current
		s.Current = &current
		s.Forecast = res.Value.Forecast
		s.Error = ""
		c.logger.Debug("weather lookup applied", "city", city, "forecast_len", len(res.Value.Forecast))
		c.startHistoryTask(s)
	}
	s.Loading = false
}

func (c *Controller) applyHistory(s *State, res Result[[]types.HistoryEntry]) {
	if s.HistoryPending > 0 {
		s.HistoryPending--
	}
	if res.Err != nil {
		c.logger.Warn("history refresh failed", "error", res.Err)
		return
	}
	s.History = res.Value
	c.logger.Debug("history refreshed", "entries", len(res.Value))
}

func (c *Controller) publish() {
	snap := c.state.clone()
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
}
