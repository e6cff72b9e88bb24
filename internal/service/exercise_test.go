package service_test

import (
	"errors"
	"testing"
	"time"

	"caltrack/internal/model"
	"caltrack/internal/service"
)

func TestIngestWorkoutsUpsertsByID(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	start := time.Date(2026, 3, 10, 7, 0, 0, 0, time.Local)
	kcal := 320.0
	sample := model.WorkoutSample{
		ID:           "w-1",
		ActivityType: "running",
		StartedAt:    start,
		EndedAt:      start.Add(40 * time.Minute),
		DurationMin:  40,
		EnergyKcal:   &kcal,
		Source:       "import",
	}

	n, err := service.IngestWorkouts(db, nil, []model.WorkoutSample{sample})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n != 1 {
		t.Fatalf("ingested = %d, want 1", n)
	}

	// Re-importing identical data changes nothing and says so.
	same, err := service.IngestWorkouts(db, nil, []model.WorkoutSample{sample})
	if err != nil {
		t.Fatalf("identical re-ingest: %v", err)
	}
	if same != 0 {
		t.Fatalf("changed = %d, want 0 for an identical re-import", same)
	}

	// Same id again with revised energy replaces, never duplicates.
	revised := 350.0
	sample.EnergyKcal = &revised
	m, err := service.IngestWorkouts(db, nil, []model.WorkoutSample{sample})
	if err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	if m != 1 {
		t.Fatalf("changed = %d, want 1 for a revised sample", m)
	}

	workouts, err := service.ListWorkouts(db, start.AddDate(0, 0, -1), start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list workouts: %v", err)
	}
	if len(workouts) != 1 {
		t.Fatalf("workouts = %d, want 1 after upsert", len(workouts))
	}
	if workouts[0].EnergyKcal == nil || *workouts[0].EnergyKcal != 350 {
		t.Fatalf("workout energy = %v, want 350", workouts[0].EnergyKcal)
	}

	day, err := service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if day.ExerciseCalories != 350 {
		t.Fatalf("day exercise calories = %d, want 350 from the workout", day.ExerciseCalories)
	}
}

func TestAddExerciseRejectsReservedType(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	_, err := service.AddExercise(db, nil, service.AddExerciseInput{
		ExerciseType:   "manual_total",
		CaloriesBurned: 100,
		PerformedAt:    time.Now(),
	})
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for reserved type, got %v", err)
	}
}

func TestListExerciseHidesManualTotalRow(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	performed := time.Date(2026, 3, 10, 18, 0, 0, 0, time.Local)
	if _, err := service.AddExercise(db, nil, service.AddExerciseInput{
		ExerciseType:   "cycling",
		CaloriesBurned: 400,
		PerformedAt:    performed,
	}); err != nil {
		t.Fatalf("add exercise: %v", err)
	}
	if err := service.UpdateExerciseCalories(db, nil, "2026-03-10", 150); err != nil {
		t.Fatalf("set manual total: %v", err)
	}

	logs, err := service.ListExercise(db, "2026-03-10")
	if err != nil {
		t.Fatalf("list exercise: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want only the cycling session", len(logs))
	}
	if logs[0].ExerciseType != "cycling" {
		t.Fatalf("log type = %s, want cycling", logs[0].ExerciseType)
	}
}
