// Package bus is a small typed event bus. Mutations to nutrition, exercise,
// or health data publish an event; the balance engine subscribes and
// recomputes. Explicit events keep recomputation triggers testable.
package bus

import (
	"sync"
	"time"
)

type Kind string

const (
	FoodEntryChanged Kind = "food_entry_changed"
	WaterLogged      Kind = "water_logged"
	ExerciseChanged  Kind = "exercise_changed"
	EnergySample     Kind = "energy_sample"
	WeightChanged    Kind = "weight_changed"
	GoalChanged      Kind = "goal_changed"
)

// Event describes one mutation. Date is the calendar day the mutation
// affects, in YYYY-MM-DD; empty means not date-scoped (e.g. weight).
type Event struct {
	Kind Kind
	Date string
	At   time.Time
}

type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func New() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a buffered event channel and a cancel func. The channel
// is closed on cancel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. A
// subscriber whose buffer is full misses the event; the engine's periodic
// refresh covers any drop.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
