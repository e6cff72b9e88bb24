package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"caltrack/internal/bus"
	"caltrack/internal/health"
	"caltrack/internal/model"
)

const (
	// defaultRefreshInterval is the periodic recompute cadence while the
	// engine runs; overridable via app config.
	defaultRefreshInterval = 5 * time.Minute
	// sourceTimeout bounds every external health-source call. A timeout
	// resolves to the estimated path instead of hanging the engine.
	sourceTimeout = 5 * time.Second

	persistRetries    = 3
	persistRetryDelay = 50 * time.Millisecond
)

// BalanceEngine derives per-date calorie balances from the nutrition
// ledger, the external health source, and the profile's estimated
// baseline. It is the single writer of balance state: bus events, ticker
// ticks, and manual refreshes all funnel into one goroutine, and per-date
// versions discard results superseded mid-fetch.
type BalanceEngine struct {
	db     *sql.DB
	source health.Source
	bus    *bus.Bus
	now    func() time.Time

	refreshEvery time.Duration

	mu       sync.Mutex
	cache    map[string]model.CalorieBalance
	versions map[string]uint64

	out chan model.CalorieBalance
}

type EngineOption func(*BalanceEngine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *BalanceEngine) { e.now = now }
}

func WithRefreshInterval(d time.Duration) EngineOption {
	return func(e *BalanceEngine) {
		if d > 0 {
			e.refreshEvery = d
		}
	}
}

// NewBalanceEngine constructs an engine with its collaborators passed in;
// no global state, so tests can substitute fakes.
func NewBalanceEngine(db *sql.DB, source health.Source, b *bus.Bus, opts ...EngineOption) *BalanceEngine {
	if source == nil {
		source = health.None{}
	}
	e := &BalanceEngine{
		db:           db,
		source:       source,
		bus:          b,
		now:          time.Now,
		refreshEvery: defaultRefreshInterval,
		cache:        make(map[string]model.CalorieBalance),
		versions:     make(map[string]uint64),
		out:          make(chan model.CalorieBalance, 16),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observe returns the stream of recomputed balances. Closed when Run
// exits.
func (e *BalanceEngine) Observe() <-chan model.CalorieBalance {
	return e.out
}

// ComputeBalance derives the date's balance. It never fails on health
// source problems: any source error, denial, or timeout degrades to the
// estimated-energy path so the caller always gets a number. Only a store
// failure (after bounded retries) is returned as an error.
func (e *BalanceEngine) ComputeBalance(ctx context.Context, date time.Time) (model.CalorieBalance, error) {
	key := dayKey(date)
	version := e.versionOf(key)

	consumed, err := e.caloriesConsumed(key)
	if err != nil {
		return model.CalorieBalance{}, err
	}

	estimatedResting, err := e.estimatedResting()
	if err != nil {
		return model.CalorieBalance{}, err
	}

	measuredResting, measuredActive := e.fetchMeasured(ctx, date)
	resolved := ResolveEnergy(measuredResting, measuredActive, estimatedResting)

	balance := model.CalorieBalance{
		Date:             key,
		CaloriesConsumed: consumed,
		RestingEnergy:    resolved.Resting,
		ActiveEnergy:     resolved.Active,
		TotalBurned:      resolved.Resting + resolved.Active,
		UsingMeasured:    resolved.UsingMeasured,
	}
	balance.Balance = float64(consumed) - balance.TotalBurned

	// A mutation that arrived while we were fetching supersedes this
	// result: hand it back but do not let it overwrite newer state.
	e.mu.Lock()
	if e.versions[key] == version {
		e.cache[key] = balance
	}
	e.mu.Unlock()
	return balance, nil
}

// Cached returns the cached balance for the date, ok=false when none is
// current.
func (e *BalanceEngine) Cached(date time.Time) (model.CalorieBalance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.cache[dayKey(date)]
	return b, ok
}

// BalanceRange computes balances for each day in [from, to] inclusive.
func (e *BalanceEngine) BalanceRange(ctx context.Context, from, to time.Time) ([]model.CalorieBalance, error) {
	if from.After(to) {
		return nil, fmt.Errorf("from date must be <= to date")
	}
	out := make([]model.CalorieBalance, 0)
	for d := beginningOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		b, err := e.ComputeBalance(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Run drives the engine until ctx is done: it subscribes to mutation
// events, watches the health source when it supports pushes, and refreshes
// the current day periodically. Each trigger causes one full
// read-recompute-publish cycle.
func (e *BalanceEngine) Run(ctx context.Context) {
	var events <-chan bus.Event
	if e.bus != nil {
		ch, cancel := e.bus.Subscribe(32)
		defer cancel()
		events = ch
	}

	var updates <-chan health.Update
	if watcher, ok := e.source.(health.Watcher); ok {
		ch, err := watcher.Watch(ctx)
		if err != nil {
			log.Printf("balance engine: health watch unavailable: %v", err)
		} else {
			updates = ch
		}
	}

	ticker := time.NewTicker(e.refreshEvery)
	defer ticker.Stop()
	defer close(e.out)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			date := ev.Date
			if date == "" {
				date = dayKey(e.now())
			}
			e.refresh(ctx, date)
		case u, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			date := u.Date
			if date.IsZero() {
				date = e.now()
			}
			e.refresh(ctx, dayKey(date))
		case <-ticker.C:
			e.refresh(ctx, dayKey(e.now()))
		}
	}
}

// Refresh invalidates and recomputes the date's balance on demand.
func (e *BalanceEngine) Refresh(ctx context.Context, date time.Time) (model.CalorieBalance, error) {
	key := dayKey(date)
	e.invalidate(key)
	return e.ComputeBalance(ctx, date)
}

func (e *BalanceEngine) refresh(ctx context.Context, key string) {
	e.invalidate(key)
	date, err := time.ParseInLocation("2006-01-02", key, time.Local)
	if err != nil {
		log.Printf("balance engine: bad date key %q: %v", key, err)
		return
	}
	balance, err := e.ComputeBalance(ctx, date)
	if err != nil {
		log.Printf("balance engine: recompute %s: %v", key, err)
		return
	}
	select {
	case e.out <- balance:
	default:
	}
}

func (e *BalanceEngine) invalidate(key string) {
	e.mu.Lock()
	e.versions[key]++
	delete(e.cache, key)
	e.mu.Unlock()
}

func (e *BalanceEngine) versionOf(key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.versions[key]
}

// caloriesConsumed prefers the stored daily aggregate and falls back to
// summing raw entries for dates never aggregated. Both paths yield the
// same total; the aggregate is itself a fold over the same rows.
func (e *BalanceEngine) caloriesConsumed(key string) (int, error) {
	var consumed int
	err := e.withRetry("read daily aggregate", func() error {
		day, err := loadDay(e.db, key)
		if err != nil {
			return err
		}
		if day != nil {
			consumed = day.Calories
			return nil
		}
		start, end, err := dayBounds(key)
		if err != nil {
			return err
		}
		return e.db.QueryRow(`
SELECT IFNULL(SUM(calories), 0) FROM food_entries
WHERE consumed_at >= ? AND consumed_at < ?
`, start, end).Scan(&consumed)
	})
	if err != nil {
		return 0, err
	}
	return consumed, nil
}

func (e *BalanceEngine) estimatedResting() (float64, error) {
	var baseline float64
	err := e.withRetry("read profile", func() error {
		profile, err := GetProfile(e.db)
		if err != nil {
			return err
		}
		var p model.UserProfile
		if profile != nil {
			p = *profile
		}
		baseline, _ = EnergyBaseline(p, 0)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return baseline, nil
}

// fetchMeasured queries the health source under a timeout. Failures are
// absorbed here: the zero values push ResolveEnergy onto the estimated
// path, which is exactly the degradation the caller expects.
func (e *BalanceEngine) fetchMeasured(ctx context.Context, date time.Time) (resting, active float64) {
	ctx, cancel := context.WithTimeout(ctx, sourceTimeout)
	defer cancel()

	resting, err := e.source.RestingEnergy(ctx, date)
	if err != nil {
		e.logSourceErr(err)
		resting = 0
	}
	active, err = e.source.ActiveEnergy(ctx, date)
	if err != nil {
		e.logSourceErr(err)
		active = 0
	}
	return resting, active
}

func (e *BalanceEngine) logSourceErr(err error) {
	if err == health.ErrUnavailable {
		return
	}
	wrapped := &SourceUnavailableError{Err: err}
	log.Printf("balance engine: %v (using estimated energy)", wrapped)
}

// withRetry retries transient sqlite contention a bounded number of times
// before surfacing a PersistenceError, leaving in-memory state untouched.
func (e *BalanceEngine) withRetry(op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < persistRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			break
		}
		time.Sleep(persistRetryDelay)
	}
	return &PersistenceError{Op: op, Err: err}
}

func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
