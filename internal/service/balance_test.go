package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"caltrack/internal/bus"
	"caltrack/internal/health"
	"caltrack/internal/model"
	"caltrack/internal/service"
)

func TestComputeBalanceEstimatedWhenNoSource(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	if _, err := service.AddFoodEntry(db, nil, service.AddFoodEntryInput{
		Name:       "lunch",
		Calories:   2000,
		ConsumedAt: day,
	}); err != nil {
		t.Fatalf("add entry: %v", err)
	}

	engine := service.NewBalanceEngine(db, health.None{}, nil)
	b, err := engine.ComputeBalance(context.Background(), day)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if b.UsingMeasured {
		t.Fatal("expected estimated energy without a source")
	}
	if b.CaloriesConsumed != 2000 {
		t.Fatalf("consumed = %d, want 2000", b.CaloriesConsumed)
	}
	// Estimated expenditure: formula baseline plus its synthetic active
	// share, for a 70 kg moderate male = 2555.5625 * 1.2.
	wantBurned := 2555.5625 * 1.2
	if diff := b.TotalBurned - wantBurned; diff > 0.001 || diff < -0.001 {
		t.Fatalf("total burned = %v, want %v", b.TotalBurned, wantBurned)
	}
	if diff := b.Balance - (2000 - wantBurned); diff > 0.001 || diff < -0.001 {
		t.Fatalf("balance = %v, want %v", b.Balance, 2000-wantBurned)
	}
}

func TestComputeBalanceSourceFailureFallsBack(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	source := health.NewMemory()
	source.Fail(errors.New("bridge process crashed"))

	engine := service.NewBalanceEngine(db, source, nil)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	b, err := engine.ComputeBalance(context.Background(), day)
	if err != nil {
		t.Fatalf("source failure must not fail the balance: %v", err)
	}
	if b.UsingMeasured {
		t.Fatal("expected estimated energy when the source fails")
	}
	if b.TotalBurned <= 0 {
		t.Fatalf("total burned = %v, want positive estimate", b.TotalBurned)
	}
}

func TestComputeBalanceUsesMeasuredEnergy(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	source := health.NewMemory()
	source.SetEnergy(day, 1700, 450)

	if _, err := service.AddFoodEntry(db, nil, service.AddFoodEntryInput{
		Name:       "meals",
		Calories:   2100,
		ConsumedAt: day.Add(12 * time.Hour),
	}); err != nil {
		t.Fatalf("add entry: %v", err)
	}

	engine := service.NewBalanceEngine(db, source, nil)
	b, err := engine.ComputeBalance(context.Background(), day)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if !b.UsingMeasured {
		t.Fatal("expected measured energy")
	}
	if b.TotalBurned != 2150 {
		t.Fatalf("total burned = %v, want 2150", b.TotalBurned)
	}
	if b.Balance != 2100-2150 {
		t.Fatalf("balance = %v, want -50", b.Balance)
	}
}

func TestComputeBalanceMatchesRawEntrySum(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	for _, kcal := range []int{300, 250, 400} {
		if _, err := service.AddFoodEntry(db, nil, service.AddFoodEntryInput{
			Name:       "food",
			Calories:   kcal,
			ConsumedAt: day,
		}); err != nil {
			t.Fatalf("add entry: %v", err)
		}
	}

	engine := service.NewBalanceEngine(db, health.None{}, nil)
	b, err := engine.ComputeBalance(context.Background(), day)
	if err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if b.CaloriesConsumed != 950 {
		t.Fatalf("consumed = %d, want 950 (aggregate and raw sum must agree)", b.CaloriesConsumed)
	}
}

func TestCachedBalanceInvalidatedByRefresh(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	day := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	engine := service.NewBalanceEngine(db, health.None{}, nil)
	ctx := context.Background()

	if _, err := engine.ComputeBalance(ctx, day); err != nil {
		t.Fatalf("compute balance: %v", err)
	}
	if _, ok := engine.Cached(day); !ok {
		t.Fatal("expected balance cached after compute")
	}

	if _, err := service.AddFoodEntry(db, nil, service.AddFoodEntryInput{
		Name:       "snack",
		Calories:   180,
		ConsumedAt: day,
	}); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	refreshed, err := engine.Refresh(ctx, day)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.CaloriesConsumed != 180 {
		t.Fatalf("refreshed consumed = %d, want 180", refreshed.CaloriesConsumed)
	}
	cached, ok := engine.Cached(day)
	if !ok || cached.CaloriesConsumed != 180 {
		t.Fatalf("cached = %+v ok=%v, want refreshed value cached", cached, ok)
	}
}

func TestRunRecomputesOnBusEvents(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	b := bus.New()
	engine := service.NewBalanceEngine(db, health.None{}, b, service.WithRefreshInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	day := time.Date(2026, 3, 10, 13, 0, 0, 0, time.Local)
	if _, err := service.AddFoodEntry(db, b, service.AddFoodEntryInput{
		Name:       "lunch",
		Calories:   700,
		ConsumedAt: day,
	}); err != nil {
		t.Fatalf("add entry: %v", err)
	}

	select {
	case got := <-engine.Observe():
		if got.Date != "2026-03-10" {
			t.Fatalf("recomputed date = %s, want 2026-03-10", got.Date)
		}
		if got.CaloriesConsumed != 700 {
			t.Fatalf("recomputed consumed = %d, want 700", got.CaloriesConsumed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no balance recompute observed after mutation event")
	}
}

func TestRunRecomputesOnHealthUpdates(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	source := health.NewMemory()
	engine := service.NewBalanceEngine(db, source, bus.New(), service.WithRefreshInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	// Give Run a moment to register the watcher before pushing.
	time.Sleep(50 * time.Millisecond)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	source.SetEnergy(day, 1650, 500)

	select {
	case got := <-engine.Observe():
		if !got.UsingMeasured {
			t.Fatalf("recomputed balance = %+v, want measured energy", got)
		}
		if got.TotalBurned != 2150 {
			t.Fatalf("total burned = %v, want 2150", got.TotalBurned)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no balance recompute observed after health update")
	}
}

func TestBalanceRangeCoversEveryDay(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	engine := service.NewBalanceEngine(db, health.None{}, nil)
	from := time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local)
	to := time.Date(2026, 3, 12, 0, 0, 0, 0, time.Local)

	balances, err := engine.BalanceRange(context.Background(), from, to)
	if err != nil {
		t.Fatalf("balance range: %v", err)
	}
	if len(balances) != 4 {
		t.Fatalf("range length = %d, want 4", len(balances))
	}
	if balances[0].Date != "2026-03-09" || balances[3].Date != "2026-03-12" {
		t.Fatalf("range bounds = %s..%s, want 2026-03-09..2026-03-12", balances[0].Date, balances[3].Date)
	}

	if _, err := engine.BalanceRange(context.Background(), to, from); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

// stallSource blocks its first resting-energy fetch until released so a
// competing recompute can land while the fetch is in flight.
type stallSource struct {
	mu      sync.Mutex
	resting float64
	active  float64
	stalled bool
	entered chan struct{}
	release chan struct{}
}

func newStallSource(resting, active float64) *stallSource {
	return &stallSource{
		resting: resting,
		active:  active,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *stallSource) set(resting, active float64) {
	s.mu.Lock()
	s.resting = resting
	s.active = active
	s.mu.Unlock()
}

func (s *stallSource) Weight(context.Context) (float64, bool, error) { return 0, false, nil }

func (s *stallSource) RestingEnergy(ctx context.Context, _ time.Time) (float64, error) {
	s.mu.Lock()
	first := !s.stalled
	s.stalled = true
	resting := s.resting
	s.mu.Unlock()
	if first {
		close(s.entered)
		select {
		case <-s.release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return resting, nil
}

func (s *stallSource) ActiveEnergy(context.Context, time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

func (s *stallSource) Workouts(context.Context, time.Time, time.Time) ([]model.WorkoutSample, error) {
	return nil, nil
}

func TestStaleFetchDoesNotOverwriteFresherBalance(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	src := newStallSource(1700, 450)
	engine := service.NewBalanceEngine(db, src, nil)

	type result struct {
		balance model.CalorieBalance
		err     error
	}
	done := make(chan result, 1)
	go func() {
		b, err := engine.ComputeBalance(context.Background(), day)
		done <- result{b, err}
	}()

	// The first compute is stuck inside the source. A refresh with newer
	// measurements completes underneath it.
	<-src.entered
	src.set(1600, 400)
	fresh, err := engine.Refresh(context.Background(), day)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.TotalBurned != 2000 {
		t.Fatalf("fresh burned = %v, want 1600+400", fresh.TotalBurned)
	}

	close(src.release)
	stale := <-done
	if stale.err != nil {
		t.Fatalf("stale compute: %v", stale.err)
	}

	cached, ok := engine.Cached(day)
	if !ok {
		t.Fatal("expected a cached balance after refresh")
	}
	if cached.TotalBurned != 2000 {
		t.Fatalf("cached burned = %v, want the fresher 2000 kept over the superseded %v",
			cached.TotalBurned, stale.balance.TotalBurned)
	}
}
