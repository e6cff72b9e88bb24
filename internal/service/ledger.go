package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"caltrack/internal/bus"
	"caltrack/internal/model"
)

// Food entry sanity ceilings. Violations reject before they can reach the
// day aggregate.
const (
	maxEntryCalories = 10000
	maxMacroGrams    = 1000
	maxNoteLength    = 500
	maxWaterEventMl  = 5000
)

var validMeals = map[string]bool{
	"":          true,
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

// UntaggedMeal is the bucket for entries logged without a meal tag.
const UntaggedMeal = "untagged"

type AddFoodEntryInput struct {
	Name       string
	Calories   int
	ProteinG   *float64
	CarbsG     *float64
	FatG       *float64
	Meal       string
	Notes      string
	ConsumedAt time.Time
}

type UpdateFoodEntryInput struct {
	ID int64
	AddFoodEntryInput
}

// AddFoodEntry validates and stores a food entry, then refolds the day it
// timestamps into.
func AddFoodEntry(db *sql.DB, b *bus.Bus, in AddFoodEntryInput) (int64, error) {
	if err := validateFoodEntry(&in); err != nil {
		return 0, err
	}
	if in.ConsumedAt.IsZero() {
		in.ConsumedAt = time.Now()
	}

	res, err := db.Exec(`
INSERT INTO food_entries(name, calories, protein_g, carbs_g, fat_g, meal, notes, consumed_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, in.Name, in.Calories, in.ProteinG, in.CarbsG, in.FatG, in.Meal, in.Notes, in.ConsumedAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert food entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve inserted entry id: %w", err)
	}

	date := dayKey(in.ConsumedAt)
	if _, err := RecomputeDay(db, date); err != nil {
		return 0, err
	}
	publish(b, bus.FoodEntryChanged, date)
	return id, nil
}

// UpdateFoodEntry replaces an entry's fields. When the timestamp moves the
// entry to another day, both days are refolded.
func UpdateFoodEntry(db *sql.DB, b *bus.Bus, in UpdateFoodEntryInput) error {
	if in.ID <= 0 {
		return validationErrorf("id", "must be > 0")
	}
	if err := validateFoodEntry(&in.AddFoodEntryInput); err != nil {
		return err
	}
	if in.ConsumedAt.IsZero() {
		return validationErrorf("consumed_at", "timestamp is required")
	}

	oldDate, err := entryDay(db, in.ID)
	if err != nil {
		return err
	}

	res, err := db.Exec(`
UPDATE food_entries
SET name = ?, calories = ?, protein_g = ?, carbs_g = ?, fat_g = ?, meal = ?, notes = ?,
  consumed_at = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, in.Name, in.Calories, in.ProteinG, in.CarbsG, in.FatG, in.Meal, in.Notes, in.ConsumedAt.Format(time.RFC3339), in.ID)
	if err != nil {
		return fmt.Errorf("update food entry %d: %w", in.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected for entry %d: %w", in.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("food entry %d not found", in.ID)
	}

	newDate := dayKey(in.ConsumedAt)
	if _, err := RecomputeDay(db, newDate); err != nil {
		return err
	}
	publish(b, bus.FoodEntryChanged, newDate)
	if oldDate != newDate {
		if _, err := RecomputeDay(db, oldDate); err != nil {
			return err
		}
		publish(b, bus.FoodEntryChanged, oldDate)
	}
	return nil
}

func DeleteFoodEntry(db *sql.DB, b *bus.Bus, id int64) error {
	if id <= 0 {
		return validationErrorf("id", "must be > 0")
	}
	date, err := entryDay(db, id)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM food_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete food entry %d: %w", id, err)
	}
	if _, err := RecomputeDay(db, date); err != nil {
		return err
	}
	publish(b, bus.FoodEntryChanged, date)
	return nil
}

// ListFoodEntries returns the date's entries ordered by consumption time.
func ListFoodEntries(db *sql.DB, date string) ([]model.FoodEntry, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`
SELECT id, name, calories, protein_g, carbs_g, fat_g, meal, IFNULL(notes, ''), consumed_at
FROM food_entries
WHERE consumed_at >= ? AND consumed_at < ?
ORDER BY consumed_at ASC, id ASC
`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list food entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.FoodEntry, 0)
	for rows.Next() {
		var e model.FoodEntry
		var consumedRaw string
		var protein, carbs, fat sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.Name, &e.Calories, &protein, &carbs, &fat, &e.Meal, &e.Notes, &consumedRaw); err != nil {
			return nil, fmt.Errorf("scan food entry: %w", err)
		}
		consumed, err := time.Parse(time.RFC3339, consumedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse consumed_at for entry %d: %w", e.ID, err)
		}
		e.ConsumedAt = consumed
		e.ProteinG = nullableFloat(protein)
		e.CarbsG = nullableFloat(carbs)
		e.FatG = nullableFloat(fat)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate food entries: %w", err)
	}
	return entries, nil
}

// AddWater logs a water intake event and refolds the day.
func AddWater(db *sql.DB, b *bus.Bus, amountMl float64, at time.Time) error {
	if amountMl <= 0 || amountMl > maxWaterEventMl {
		return validationErrorf("water", "must be in (0, %d] mL, got %.0f", maxWaterEventMl, amountMl)
	}
	if at.IsZero() {
		at = time.Now()
	}
	if _, err := db.Exec(`
INSERT INTO water_events(amount_ml, logged_at) VALUES(?, ?)
`, amountMl, at.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert water event: %w", err)
	}
	date := dayKey(at)
	if _, err := RecomputeDay(db, date); err != nil {
		return err
	}
	publish(b, bus.WaterLogged, date)
	return nil
}

// manualExerciseTotal is the reserved exercise type holding a day's
// explicitly-set exercise calories. One row per date, replaced on set, so
// setting the same value twice is idempotent.
const manualExerciseTotal = "manual_total"

// UpdateExerciseCalories sets the date's manually-entered exercise
// calories. Negative input clamps to zero (exercise calories cannot be
// negative).
func UpdateExerciseCalories(db *sql.DB, b *bus.Bus, date string, calories int) error {
	date, err := normalizeDate(date, time.Now)
	if err != nil {
		return err
	}
	if calories < 0 {
		calories = 0
	}
	start, end, err := dayBounds(date)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin exercise tx: %w", err)
	}
	if _, err := tx.Exec(`
DELETE FROM exercise_logs
WHERE exercise_type = ? AND performed_at >= ? AND performed_at < ?
`, manualExerciseTotal, start, end); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear manual exercise total: %w", err)
	}
	if calories > 0 {
		if _, err := tx.Exec(`
INSERT INTO exercise_logs(exercise_type, calories_burned, performed_at)
VALUES(?, ?, ?)
`, manualExerciseTotal, calories, start); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set manual exercise total: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exercise tx: %w", err)
	}

	if _, err := RecomputeDay(db, date); err != nil {
		return err
	}
	publish(b, bus.ExerciseChanged, date)
	return nil
}

// GetDay returns the date's nutrition aggregate, creating it lazily on
// first access.
func GetDay(db *sql.DB, date string) (*model.DailyNutrition, error) {
	date, err := normalizeDate(date, time.Now)
	if err != nil {
		return nil, err
	}
	day, err := loadDay(db, date)
	if err != nil {
		return nil, err
	}
	if day != nil {
		return day, nil
	}
	fresh, err := RecomputeDay(db, date)
	if err != nil {
		return nil, err
	}
	return &fresh, nil
}

type MealGroup struct {
	Meal     string
	Calories int
	ProteinG float64
	CarbsG   float64
	FatG     float64
	Entries  int
}

// MealBreakdown groups the date's entries by meal tag. Untagged entries
// land in the "untagged" bucket rather than being dropped.
func MealBreakdown(db *sql.DB, date string) ([]MealGroup, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`
SELECT CASE WHEN meal = '' THEN ? ELSE meal END AS bucket,
  SUM(calories), SUM(IFNULL(protein_g, 0)), SUM(IFNULL(carbs_g, 0)), SUM(IFNULL(fat_g, 0)), COUNT(*)
FROM food_entries
WHERE consumed_at >= ? AND consumed_at < ?
GROUP BY bucket
ORDER BY SUM(calories) DESC
`, UntaggedMeal, start, end)
	if err != nil {
		return nil, fmt.Errorf("query meal breakdown: %w", err)
	}
	defer rows.Close()

	groups := make([]MealGroup, 0)
	for rows.Next() {
		var g MealGroup
		if err := rows.Scan(&g.Meal, &g.Calories, &g.ProteinG, &g.CarbsG, &g.FatG, &g.Entries); err != nil {
			return nil, fmt.Errorf("scan meal breakdown: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meal breakdown: %w", err)
	}
	return groups, nil
}

// RecomputeDay folds the date's entries, water events, and exercise into
// the daily aggregate and stores it. Totals are always a full fold over
// current rows; there is no incremental counter to drift. Targets are
// copied from the active goal at aggregation time.
func RecomputeDay(db *sql.DB, date string) (model.DailyNutrition, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return model.DailyNutrition{}, err
	}

	day := model.DailyNutrition{Date: date}
	err = db.QueryRow(`
SELECT IFNULL(SUM(calories), 0), IFNULL(SUM(IFNULL(protein_g, 0)), 0),
  IFNULL(SUM(IFNULL(carbs_g, 0)), 0), IFNULL(SUM(IFNULL(fat_g, 0)), 0)
FROM food_entries WHERE consumed_at >= ? AND consumed_at < ?
`, start, end).Scan(&day.Calories, &day.ProteinG, &day.CarbsG, &day.FatG)
	if err != nil {
		return model.DailyNutrition{}, fmt.Errorf("fold food entries for %s: %w", date, err)
	}

	err = db.QueryRow(`
SELECT IFNULL(SUM(amount_ml), 0) FROM water_events WHERE logged_at >= ? AND logged_at < ?
`, start, end).Scan(&day.WaterMl)
	if err != nil {
		return model.DailyNutrition{}, fmt.Errorf("fold water events for %s: %w", date, err)
	}

	exercise, err := exerciseCaloriesForDay(db, start, end)
	if err != nil {
		return model.DailyNutrition{}, err
	}
	day.ExerciseCalories = exercise

	goal, err := ActiveGoal(db)
	if err != nil {
		return model.DailyNutrition{}, err
	}
	if goal != nil {
		day.CalorieTarget = goal.CalorieTarget
		day.ProteinTargetG = goal.ProteinG
		day.CarbsTargetG = goal.CarbsG
		day.FatTargetG = goal.FatG
		day.WaterTargetMl = goal.WaterMl
	}
	if day.WaterTargetMl <= 0 {
		water, err := WaterTargetMl(db)
		if err != nil {
			return model.DailyNutrition{}, err
		}
		day.WaterTargetMl = water
	}

	_, err = db.Exec(`
INSERT INTO daily_nutrition(date, calories, protein_g, carbs_g, fat_g, water_ml, exercise_calories,
  calorie_target, protein_target_g, carbs_target_g, fat_target_g, water_target_ml, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(date) DO UPDATE SET
  calories=excluded.calories,
  protein_g=excluded.protein_g,
  carbs_g=excluded.carbs_g,
  fat_g=excluded.fat_g,
  water_ml=excluded.water_ml,
  exercise_calories=excluded.exercise_calories,
  calorie_target=excluded.calorie_target,
  protein_target_g=excluded.protein_target_g,
  carbs_target_g=excluded.carbs_target_g,
  fat_target_g=excluded.fat_target_g,
  water_target_ml=excluded.water_target_ml,
  updated_at=CURRENT_TIMESTAMP
`, day.Date, day.Calories, day.ProteinG, day.CarbsG, day.FatG, day.WaterMl, day.ExerciseCalories,
		day.CalorieTarget, day.ProteinTargetG, day.CarbsTargetG, day.FatTargetG, day.WaterTargetMl)
	if err != nil {
		return model.DailyNutrition{}, fmt.Errorf("store daily aggregate for %s: %w", date, err)
	}
	day.UpdatedAt = time.Now()
	return day, nil
}

func loadDay(db *sql.DB, date string) (*model.DailyNutrition, error) {
	var d model.DailyNutrition
	err := db.QueryRow(`
SELECT date, calories, protein_g, carbs_g, fat_g, water_ml, exercise_calories,
  calorie_target, protein_target_g, carbs_target_g, fat_target_g, water_target_ml, updated_at
FROM daily_nutrition WHERE date = ?
`, date).Scan(&d.Date, &d.Calories, &d.ProteinG, &d.CarbsG, &d.FatG, &d.WaterMl, &d.ExerciseCalories,
		&d.CalorieTarget, &d.ProteinTargetG, &d.CarbsTargetG, &d.FatTargetG, &d.WaterTargetMl, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load daily aggregate for %s: %w", date, err)
	}
	return &d, nil
}

func entryDay(db *sql.DB, id int64) (string, error) {
	var consumedRaw string
	err := db.QueryRow(`SELECT consumed_at FROM food_entries WHERE id = ?`, id).Scan(&consumedRaw)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("food entry %d not found", id)
		}
		return "", fmt.Errorf("load food entry %d: %w", id, err)
	}
	consumed, err := time.Parse(time.RFC3339, consumedRaw)
	if err != nil {
		return "", fmt.Errorf("parse consumed_at for entry %d: %w", id, err)
	}
	return dayKey(consumed), nil
}

func validateFoodEntry(in *AddFoodEntryInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return validationErrorf("name", "entry name is required")
	}
	if in.Calories <= 0 || in.Calories > maxEntryCalories {
		return validationErrorf("calories", "must be in (0, %d], got %d", maxEntryCalories, in.Calories)
	}
	for _, macro := range []struct {
		field string
		value *float64
	}{
		{"protein", in.ProteinG},
		{"carbs", in.CarbsG},
		{"fat", in.FatG},
	} {
		if macro.value == nil {
			continue
		}
		if *macro.value < 0 || *macro.value > maxMacroGrams {
			return validationErrorf(macro.field, "must be in [0, %d] grams, got %.1f", maxMacroGrams, *macro.value)
		}
	}
	in.Meal = strings.ToLower(strings.TrimSpace(in.Meal))
	if !validMeals[in.Meal] {
		return validationErrorf("meal", "unknown meal %q (use breakfast, lunch, dinner, snack)", in.Meal)
	}
	in.Notes = strings.TrimSpace(in.Notes)
	if len(in.Notes) > maxNoteLength {
		return validationErrorf("notes", "must be at most %d characters, got %d", maxNoteLength, len(in.Notes))
	}
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
