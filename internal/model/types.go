package model

import "time"

// GoalType classifies a goal by the direction of intended weight change.
type GoalType string

const (
	GoalLose     GoalType = "lose"
	GoalMaintain GoalType = "maintain"
	GoalGain     GoalType = "gain"
)

type UserProfile struct {
	Name          string
	Sex           string
	Age           int
	HeightCm      float64
	WeightKg      float64
	Unit          string
	ActivityLevel string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Goal struct {
	ID             int64
	Type           GoalType
	TargetWeightKg *float64
	TargetDate     string
	WeeklyRateKg   float64
	CalorieTarget  float64
	ProteinG       float64
	CarbsG         float64
	FatG           float64
	SatFatG        float64
	WaterMl        float64
	// WaterOverridden marks an explicitly chosen water target, kept as is
	// when the goal's other targets are recomputed.
	WaterOverridden bool
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DailyAdjustment is the signed calorie surplus/deficit per day implied by
// the goal's weekly rate (7700 kcal per kg of body weight).
func (g Goal) DailyAdjustment() float64 {
	return g.WeeklyRateKg * 7700 / 7
}

type FoodEntry struct {
	ID         int64
	Name       string
	Calories   int
	ProteinG   *float64
	CarbsG     *float64
	FatG       *float64
	Meal       string
	Notes      string
	ConsumedAt time.Time
}

// DailyNutrition is the per-date aggregate of logged food, water, and
// exercise, with the active goal's targets copied in at aggregation time.
type DailyNutrition struct {
	Date             string
	Calories         int
	ProteinG         float64
	CarbsG           float64
	FatG             float64
	WaterMl          float64
	ExerciseCalories int
	CalorieTarget    float64
	ProteinTargetG   float64
	CarbsTargetG     float64
	FatTargetG       float64
	WaterTargetMl    float64
	UpdatedAt        time.Time
}

// NetCalories is intake minus exercise calories for the day.
func (d DailyNutrition) NetCalories() int {
	return d.Calories - d.ExerciseCalories
}

// RemainingCalories may be negative, meaning over target.
func (d DailyNutrition) RemainingCalories() float64 {
	return d.CalorieTarget - float64(d.Calories)
}

// CalorieProgress is the raw consumed/target ratio, not clamped at 1.0, so
// callers can tell "at 100%" from "at 140%". Zero target yields 0.
func (d DailyNutrition) CalorieProgress() float64 {
	if d.CalorieTarget <= 0 {
		return 0
	}
	return float64(d.Calories) / d.CalorieTarget
}

// CalorieBalance is fully derived from the day's nutrition aggregate and
// energy samples; it is never edited directly.
type CalorieBalance struct {
	Date             string  `json:"date"`
	CaloriesConsumed int     `json:"calories_consumed"`
	RestingEnergy    float64 `json:"resting_energy_kcal"`
	ActiveEnergy     float64 `json:"active_energy_kcal"`
	TotalBurned      float64 `json:"total_burned_kcal"`
	Balance          float64 `json:"balance_kcal"`
	UsingMeasured    bool    `json:"using_measured"`
}

// WorkoutSample is ingested from the external health source and never
// mutated by this application.
type WorkoutSample struct {
	ID           string
	ActivityType string
	StartedAt    time.Time
	EndedAt      time.Time
	DurationMin  float64
	EnergyKcal   *float64
	DistanceKm   *float64
	Source       string
}

type WeightSample struct {
	ID         string
	MeasuredAt time.Time
	WeightKg   float64
	Source     string
}

type ExerciseLog struct {
	ID             int64
	ExerciseType   string
	CaloriesBurned int
	DurationMin    *int
	PerformedAt    time.Time
	Notes          string
}
