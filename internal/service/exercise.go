package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"caltrack/internal/bus"
	"caltrack/internal/model"
)

type AddExerciseInput struct {
	ExerciseType   string
	CaloriesBurned int
	DurationMin    *int
	PerformedAt    time.Time
	Notes          string
}

// AddExercise logs a manual exercise session and refolds the day.
func AddExercise(db *sql.DB, b *bus.Bus, in AddExerciseInput) (int64, error) {
	in.ExerciseType = strings.TrimSpace(in.ExerciseType)
	if in.ExerciseType == "" {
		return 0, validationErrorf("exercise_type", "exercise type is required")
	}
	if in.ExerciseType == manualExerciseTotal {
		return 0, validationErrorf("exercise_type", "%q is reserved", manualExerciseTotal)
	}
	if in.CaloriesBurned < 0 {
		return 0, validationErrorf("calories_burned", "must be >= 0")
	}
	if in.DurationMin != nil && *in.DurationMin <= 0 {
		return 0, validationErrorf("duration", "must be > 0 minutes")
	}
	if in.PerformedAt.IsZero() {
		in.PerformedAt = time.Now()
	}

	res, err := db.Exec(`
INSERT INTO exercise_logs(exercise_type, calories_burned, duration_min, performed_at, notes)
VALUES(?, ?, ?, ?, ?)
`, in.ExerciseType, in.CaloriesBurned, in.DurationMin, in.PerformedAt.Format(time.RFC3339), strings.TrimSpace(in.Notes))
	if err != nil {
		return 0, fmt.Errorf("insert exercise log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve inserted exercise id: %w", err)
	}

	date := dayKey(in.PerformedAt)
	if _, err := RecomputeDay(db, date); err != nil {
		return 0, err
	}
	publish(b, bus.ExerciseChanged, date)
	return id, nil
}

// ListExercise returns the date's exercise logs ordered by time. The
// reserved manual-total row is excluded; it is an aggregate input, not a
// session.
func ListExercise(db *sql.DB, date string) ([]model.ExerciseLog, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`
SELECT id, exercise_type, calories_burned, duration_min, performed_at, IFNULL(notes, '')
FROM exercise_logs
WHERE performed_at >= ? AND performed_at < ? AND exercise_type != ?
ORDER BY performed_at ASC, id ASC
`, start, end, manualExerciseTotal)
	if err != nil {
		return nil, fmt.Errorf("list exercise logs: %w", err)
	}
	defer rows.Close()

	items := make([]model.ExerciseLog, 0)
	for rows.Next() {
		var e model.ExerciseLog
		var performedRaw string
		var duration sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ExerciseType, &e.CaloriesBurned, &duration, &performedRaw, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan exercise log: %w", err)
		}
		performed, err := time.Parse(time.RFC3339, performedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse performed_at: %w", err)
		}
		e.PerformedAt = performed
		if duration.Valid {
			v := int(duration.Int64)
			e.DurationMin = &v
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercise logs: %w", err)
	}
	return items, nil
}

// IngestWorkouts upserts workout samples from the external source by their
// source id and refolds every affected day. Samples are read-only after
// ingestion. Returns how many samples were actually inserted or changed; a
// re-import of identical data counts zero.
func IngestWorkouts(db *sql.DB, b *bus.Bus, samples []model.WorkoutSample) (int, error) {
	changed := 0
	dates := make(map[string]bool)
	for _, w := range samples {
		if w.ID == "" {
			return 0, validationErrorf("workout_id", "sample id is required")
		}
		res, err := db.Exec(`
INSERT INTO workout_samples(id, activity_type, started_at, ended_at, duration_min, energy_kcal, distance_km, source)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  activity_type=excluded.activity_type,
  started_at=excluded.started_at,
  ended_at=excluded.ended_at,
  duration_min=excluded.duration_min,
  energy_kcal=excluded.energy_kcal,
  distance_km=excluded.distance_km,
  source=excluded.source
WHERE excluded.activity_type IS NOT workout_samples.activity_type
  OR excluded.started_at IS NOT workout_samples.started_at
  OR excluded.ended_at IS NOT workout_samples.ended_at
  OR excluded.duration_min IS NOT workout_samples.duration_min
  OR excluded.energy_kcal IS NOT workout_samples.energy_kcal
  OR excluded.distance_km IS NOT workout_samples.distance_km
  OR excluded.source IS NOT workout_samples.source
`, w.ID, w.ActivityType, w.StartedAt.Format(time.RFC3339), w.EndedAt.Format(time.RFC3339),
			w.DurationMin, w.EnergyKcal, w.DistanceKm, w.Source)
		if err != nil {
			return 0, fmt.Errorf("upsert workout sample %s: %w", w.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("count upsert for sample %s: %w", w.ID, err)
		}
		if n > 0 {
			changed++
			dates[dayKey(w.StartedAt)] = true
		}
	}

	for date := range dates {
		if _, err := RecomputeDay(db, date); err != nil {
			return 0, err
		}
		publish(b, bus.EnergySample, date)
	}
	return changed, nil
}

// ListWorkouts returns ingested workout samples within [from, to].
func ListWorkouts(db *sql.DB, from, to time.Time) ([]model.WorkoutSample, error) {
	rows, err := db.Query(`
SELECT id, activity_type, started_at, ended_at, duration_min, energy_kcal, distance_km, source
FROM workout_samples
WHERE started_at >= ? AND started_at < ?
ORDER BY started_at ASC
`, beginningOfDay(from).Format(time.RFC3339), beginningOfDay(to).Add(24*time.Hour).Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list workout samples: %w", err)
	}
	defer rows.Close()

	items := make([]model.WorkoutSample, 0)
	for rows.Next() {
		var w model.WorkoutSample
		var startedRaw, endedRaw string
		var energy, distance sql.NullFloat64
		if err := rows.Scan(&w.ID, &w.ActivityType, &startedRaw, &endedRaw, &w.DurationMin, &energy, &distance, &w.Source); err != nil {
			return nil, fmt.Errorf("scan workout sample: %w", err)
		}
		started, err := time.Parse(time.RFC3339, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		ended, err := time.Parse(time.RFC3339, endedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		w.StartedAt = started
		w.EndedAt = ended
		w.EnergyKcal = nullableFloat(energy)
		w.DistanceKm = nullableFloat(distance)
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout samples: %w", err)
	}
	return items, nil
}

// exerciseCaloriesForDay folds manual exercise logs and ingested workout
// energy into the day's exercise-calorie total.
func exerciseCaloriesForDay(db *sql.DB, start, end string) (int, error) {
	var manual int
	err := db.QueryRow(`
SELECT IFNULL(SUM(calories_burned), 0) FROM exercise_logs
WHERE performed_at >= ? AND performed_at < ?
`, start, end).Scan(&manual)
	if err != nil {
		return 0, fmt.Errorf("fold exercise logs: %w", err)
	}

	var workouts float64
	err = db.QueryRow(`
SELECT IFNULL(SUM(IFNULL(energy_kcal, 0)), 0) FROM workout_samples
WHERE started_at >= ? AND started_at < ?
`, start, end).Scan(&workouts)
	if err != nil {
		return 0, fmt.Errorf("fold workout samples: %w", err)
	}
	return manual + int(workouts), nil
}
