package health

import (
	"context"
	"sync"
	"time"

	"caltrack/internal/model"
)

// Memory is an in-memory Source with push support. Tests and the serve
// demo use it to stand in for a device health store.
type Memory struct {
	mu       sync.Mutex
	weightKg float64
	hasW     bool
	resting  map[string]float64
	active   map[string]float64
	workouts []model.WorkoutSample
	watchers []chan Update
	fail     error
}

func NewMemory() *Memory {
	return &Memory{
		resting: make(map[string]float64),
		active:  make(map[string]float64),
	}
}

// Fail makes every subsequent fetch return err. Pass nil to recover.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *Memory) SetWeight(kg float64) {
	m.mu.Lock()
	m.weightKg = kg
	m.hasW = true
	m.mu.Unlock()
	m.push(Update{Kind: UpdateWeight})
}

func (m *Memory) SetEnergy(date time.Time, resting, active float64) {
	key := date.Format("2006-01-02")
	m.mu.Lock()
	m.resting[key] = resting
	m.active[key] = active
	m.mu.Unlock()
	m.push(Update{Kind: UpdateEnergy, Date: date})
}

func (m *Memory) AddWorkout(w model.WorkoutSample) {
	m.mu.Lock()
	m.workouts = append(m.workouts, w)
	m.mu.Unlock()
	m.push(Update{Kind: UpdateEnergy, Date: w.StartedAt})
}

func (m *Memory) Weight(context.Context) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, false, m.fail
	}
	return m.weightKg, m.hasW, nil
}

func (m *Memory) RestingEnergy(_ context.Context, date time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	return m.resting[date.Format("2006-01-02")], nil
}

func (m *Memory) ActiveEnergy(_ context.Context, date time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	return m.active[date.Format("2006-01-02")], nil
}

func (m *Memory) Workouts(_ context.Context, from, to time.Time) ([]model.WorkoutSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := make([]model.WorkoutSample, 0)
	for _, w := range m.workouts {
		if w.StartedAt.Before(from) || w.StartedAt.After(to) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (m *Memory) Watch(ctx context.Context) (<-chan Update, error) {
	ch := make(chan Update, 16)
	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (m *Memory) push(u Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.watchers {
		select {
		case w <- u:
		default:
		}
	}
}
