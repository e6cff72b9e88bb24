// Package health defines the port to the external health-data source
// (measured energy, body weight, workouts) and local implementations of it.
// Every call is fallible and every pushed update may arrive at any time,
// possibly out of order relative to user actions.
package health

import (
	"context"
	"errors"
	"time"

	"caltrack/internal/model"
)

// ErrUnavailable reports that the source has no data or access was denied.
// Callers degrade to the estimated-energy path, never propagate it upward.
var ErrUnavailable = errors.New("health data unavailable")

type Source interface {
	// Weight returns the most recent measured body weight, ok=false when
	// none exists.
	Weight(ctx context.Context) (kg float64, ok bool, err error)
	// RestingEnergy returns measured resting energy burned on the date, 0
	// when unmeasured.
	RestingEnergy(ctx context.Context, date time.Time) (float64, error)
	// ActiveEnergy returns measured active energy burned on the date, 0
	// when unmeasured.
	ActiveEnergy(ctx context.Context, date time.Time) (float64, error)
	// Workouts lists workout samples in [from, to].
	Workouts(ctx context.Context, from, to time.Time) ([]model.WorkoutSample, error)
}

// UpdateKind tags a pushed sample update.
type UpdateKind string

const (
	UpdateEnergy UpdateKind = "energy"
	UpdateWeight UpdateKind = "weight"
)

type Update struct {
	Kind UpdateKind
	Date time.Time
}

// Watcher is implemented by sources that push updates. Watch returns a
// channel closed when ctx is done.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Update, error)
}

// None is a Source with no data behind it; every fetch fails with
// ErrUnavailable. Used when no health integration is configured, which
// exercises the estimated path end to end.
type None struct{}

func (None) Weight(context.Context) (float64, bool, error) { return 0, false, ErrUnavailable }

func (None) RestingEnergy(context.Context, time.Time) (float64, error) { return 0, ErrUnavailable }

func (None) ActiveEnergy(context.Context, time.Time) (float64, error) { return 0, ErrUnavailable }

func (None) Workouts(context.Context, time.Time, time.Time) ([]model.WorkoutSample, error) {
	return nil, ErrUnavailable
}
