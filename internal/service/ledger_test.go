package service_test

import (
	"errors"
	"testing"
	"time"

	"caltrack/internal/service"
)

func TestDailyTotalsFoldAddAndRemove(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	protein := func(v float64) *float64 { return &v }

	var firstID int64
	entries := []struct {
		calories int
		protein  *float64
	}{
		{300, protein(20)},
		{250, protein(15)},
		{400, nil},
	}
	for i, e := range entries {
		id, err := service.AddFoodEntry(db, nil, service.AddFoodEntryInput{
			Name:       "food",
			Calories:   e.calories,
			ProteinG:   e.protein,
			ConsumedAt: day.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("add entry %d: %v", i, err)
		}
		if i == 0 {
			firstID = id
		}
	}

	got, err := service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if got.Calories != 950 {
		t.Fatalf("total calories = %d, want 950", got.Calories)
	}
	if got.ProteinG != 35 {
		t.Fatalf("total protein = %v, want 35", got.ProteinG)
	}

	if err := service.DeleteFoodEntry(db, nil, firstID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	got, err = service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day after delete: %v", err)
	}
	if got.Calories != 650 {
		t.Fatalf("total calories after delete = %d, want 650", got.Calories)
	}
	if got.ProteinG != 15 {
		t.Fatalf("total protein after delete = %v, want 15", got.ProteinG)
	}
}

func TestUpdateFoodEntryMovesBetweenDays(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	id, err := service.AddFoodEntry(db, nil, service.AddFoodEntryInput{
		Name:       "lunch",
		Calories:   600,
		ConsumedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local),
	})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}

	err = service.UpdateFoodEntry(db, nil, service.UpdateFoodEntryInput{
		ID: id,
		AddFoodEntryInput: service.AddFoodEntryInput{
			Name:       "lunch",
			Calories:   600,
			ConsumedAt: time.Date(2026, 3, 11, 12, 0, 0, 0, time.Local),
		},
	})
	if err != nil {
		t.Fatalf("update entry: %v", err)
	}

	oldDay, err := service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get old day: %v", err)
	}
	if oldDay.Calories != 0 {
		t.Fatalf("old day calories = %d, want 0 after move", oldDay.Calories)
	}
	newDay, err := service.GetDay(db, "2026-03-11")
	if err != nil {
		t.Fatalf("get new day: %v", err)
	}
	if newDay.Calories != 600 {
		t.Fatalf("new day calories = %d, want 600", newDay.Calories)
	}
}

func TestFoodEntryValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	negative := -5.0
	cases := []struct {
		name string
		in   service.AddFoodEntryInput
	}{
		{"zero calories", service.AddFoodEntryInput{Name: "x", Calories: 0}},
		{"negative calories", service.AddFoodEntryInput{Name: "x", Calories: -100}},
		{"excessive calories", service.AddFoodEntryInput{Name: "x", Calories: 10001}},
		{"empty name", service.AddFoodEntryInput{Name: "  ", Calories: 100}},
		{"negative protein", service.AddFoodEntryInput{Name: "x", Calories: 100, ProteinG: &negative}},
		{"unknown meal", service.AddFoodEntryInput{Name: "x", Calories: 100, Meal: "brunch"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.AddFoodEntry(db, nil, tc.in)
			var verr *service.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestManualExerciseTotalIsIdempotent(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := service.UpdateExerciseCalories(db, nil, "2026-03-10", 300); err != nil {
			t.Fatalf("set total attempt %d: %v", i, err)
		}
	}
	day, err := service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if day.ExerciseCalories != 300 {
		t.Fatalf("exercise calories = %d, want 300 after repeated sets", day.ExerciseCalories)
	}

	// Negative totals clamp to zero instead of failing.
	if err := service.UpdateExerciseCalories(db, nil, "2026-03-10", -50); err != nil {
		t.Fatalf("set negative total: %v", err)
	}
	day, err = service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day after clamp: %v", err)
	}
	if day.ExerciseCalories != 0 {
		t.Fatalf("exercise calories = %d, want 0 after negative set", day.ExerciseCalories)
	}
}

func TestManualTotalAddsToLoggedSessions(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	performed := time.Date(2026, 3, 10, 7, 0, 0, 0, time.Local)
	if _, err := service.AddExercise(db, nil, service.AddExerciseInput{
		ExerciseType:   "running",
		CaloriesBurned: 250,
		PerformedAt:    performed,
	}); err != nil {
		t.Fatalf("add exercise: %v", err)
	}
	if err := service.UpdateExerciseCalories(db, nil, "2026-03-10", 100); err != nil {
		t.Fatalf("set manual total: %v", err)
	}

	day, err := service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if day.ExerciseCalories != 350 {
		t.Fatalf("exercise calories = %d, want 350 (session + manual)", day.ExerciseCalories)
	}
}

func TestWaterAccumulatesAndValidates(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	if err := service.AddWater(db, nil, 500, at); err != nil {
		t.Fatalf("add water: %v", err)
	}
	if err := service.AddWater(db, nil, 250, at.Add(2*time.Hour)); err != nil {
		t.Fatalf("add second water: %v", err)
	}

	day, err := service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if day.WaterMl != 750 {
		t.Fatalf("water = %v, want 750", day.WaterMl)
	}

	var verr *service.ValidationError
	if err := service.AddWater(db, nil, 0, at); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for zero amount, got %v", err)
	}
	if err := service.AddWater(db, nil, -200, at); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for negative amount, got %v", err)
	}
}

func TestMealBreakdownGroupsUntagged(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	add := func(meal string, calories int) {
		t.Helper()
		if _, err := service.AddFoodEntry(db, nil, service.AddFoodEntryInput{
			Name:       "food",
			Calories:   calories,
			Meal:       meal,
			ConsumedAt: day,
		}); err != nil {
			t.Fatalf("add %s entry: %v", meal, err)
		}
	}
	add("breakfast", 400)
	add("breakfast", 200)
	add("", 150)

	groups, err := service.MealBreakdown(db, "2026-03-10")
	if err != nil {
		t.Fatalf("meal breakdown: %v", err)
	}
	byMeal := make(map[string]service.MealGroup, len(groups))
	for _, g := range groups {
		byMeal[g.Meal] = g
	}
	if g := byMeal["breakfast"]; g.Calories != 600 || g.Entries != 2 {
		t.Fatalf("breakfast group = %+v, want 600 kcal over 2 entries", g)
	}
	if g := byMeal[service.UntaggedMeal]; g.Calories != 150 || g.Entries != 1 {
		t.Fatalf("untagged group = %+v, want 150 kcal over 1 entry", g)
	}
}

func TestDayCopiesActiveGoalTargets(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	setTestProfile(t, db)

	if _, err := service.SetGoal(db, nil, service.SetGoalInput{
		Type:         "lose",
		WeeklyRateKg: -0.5,
	}); err != nil {
		t.Fatalf("set goal: %v", err)
	}

	if _, err := service.AddFoodEntry(db, nil, service.AddFoodEntryInput{
		Name:       "oats",
		Calories:   350,
		ConsumedAt: time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local),
	}); err != nil {
		t.Fatalf("add entry: %v", err)
	}

	day, err := service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if day.CalorieTarget <= 0 {
		t.Fatalf("calorie target = %v, want copied from active goal", day.CalorieTarget)
	}
	if day.ProteinTargetG != 112 {
		t.Fatalf("protein target = %v, want 112", day.ProteinTargetG)
	}
}

func TestWaterTargetWithoutGoalUsesConfigThenDefault(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	if err := service.AddWater(db, nil, 500, at); err != nil {
		t.Fatalf("add water: %v", err)
	}

	day, err := service.GetDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if day.WaterTargetMl != service.DefaultWaterTargetMl {
		t.Fatalf("water target = %v, want the %v default with no goal or override",
			day.WaterTargetMl, service.DefaultWaterTargetMl)
	}

	if err := service.SetConfig(db, service.ConfigWaterTargetMl, "3000"); err != nil {
		t.Fatalf("set config: %v", err)
	}
	refreshed, err := service.RecomputeDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("recompute day: %v", err)
	}
	if refreshed.WaterTargetMl != 3000 {
		t.Fatalf("water target = %v, want the 3000 config override", refreshed.WaterTargetMl)
	}

	// Garbage in the override never zeroes the target.
	if err := service.SetConfig(db, service.ConfigWaterTargetMl, "plenty"); err != nil {
		t.Fatalf("set bad config: %v", err)
	}
	fallback, err := service.RecomputeDay(db, "2026-03-10")
	if err != nil {
		t.Fatalf("recompute day: %v", err)
	}
	if fallback.WaterTargetMl != service.DefaultWaterTargetMl {
		t.Fatalf("water target = %v, want the default for an unparseable override", fallback.WaterTargetMl)
	}
}
