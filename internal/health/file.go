package health

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"caltrack/internal/model"
)

// Export is the JSON shape of a health-data export file: a weight reading,
// per-day energy samples, and workouts.
type Export struct {
	WeightKg float64        `json:"weight_kg,omitempty"`
	Days     []DaySample    `json:"days"`
	Workouts []WorkoutEntry `json:"workouts"`
}

type DaySample struct {
	Date        string  `json:"date"`
	RestingKcal float64 `json:"resting_kcal"`
	ActiveKcal  float64 `json:"active_kcal"`
}

type WorkoutEntry struct {
	ID           string   `json:"id,omitempty"`
	ActivityType string   `json:"activity_type"`
	StartedAt    string   `json:"started_at"`
	EndedAt      string   `json:"ended_at"`
	EnergyKcal   *float64 `json:"energy_kcal,omitempty"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	Source       string   `json:"source,omitempty"`
}

// LoadFile parses an export file into a Memory source. Entries without an
// id get a locally-synthesized UUID so re-imports stay idempotent within
// one file but external ids are preserved when present.
func LoadFile(path string) (*Memory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read health export %s: %w", path, err)
	}
	var export Export
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, fmt.Errorf("parse health export %s: %w", path, err)
	}

	src := NewMemory()
	if export.WeightKg > 0 {
		src.SetWeight(export.WeightKg)
	}
	for _, d := range export.Days {
		date, err := time.ParseInLocation("2006-01-02", d.Date, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid day %q in health export: %w", d.Date, err)
		}
		src.SetEnergy(date, d.RestingKcal, d.ActiveKcal)
	}
	for _, w := range export.Workouts {
		sample, err := w.toSample()
		if err != nil {
			return nil, err
		}
		src.AddWorkout(sample)
	}
	return src, nil
}

func (w WorkoutEntry) toSample() (model.WorkoutSample, error) {
	started, err := time.Parse(time.RFC3339, w.StartedAt)
	if err != nil {
		return model.WorkoutSample{}, fmt.Errorf("invalid workout started_at %q: %w", w.StartedAt, err)
	}
	ended, err := time.Parse(time.RFC3339, w.EndedAt)
	if err != nil {
		return model.WorkoutSample{}, fmt.Errorf("invalid workout ended_at %q: %w", w.EndedAt, err)
	}
	if ended.Before(started) {
		return model.WorkoutSample{}, fmt.Errorf("workout ends before it starts (%s)", w.StartedAt)
	}
	id := strings.TrimSpace(w.ID)
	if id == "" {
		id = uuid.NewString()
	}
	source := w.Source
	if source == "" {
		source = "import"
	}
	return model.WorkoutSample{
		ID:           id,
		ActivityType: w.ActivityType,
		StartedAt:    started,
		EndedAt:      ended,
		DurationMin:  ended.Sub(started).Minutes(),
		EnergyKcal:   w.EnergyKcal,
		DistanceKm:   w.DistanceKm,
		Source:       source,
	}, nil
}
