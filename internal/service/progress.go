package service

import (
	"fmt"
	"math"
	"time"

	"caltrack/internal/model"
)

type TrackStatus string

const (
	TrackOnTarget TrackStatus = "on_track"
	TrackBehind   TrackStatus = "behind"
	TrackAhead    TrackStatus = "ahead"
	TrackNoGoal   TrackStatus = "no_goal"
)

// On-track tolerance bands and insight thresholds, policy constants in one
// place.
const (
	weeklyTolerance  = 0.10
	overallTolerance = 0.15

	// maintainDailyBandKcal is the per-day band treated as on track when
	// the target balance is zero (a maintain goal), where a relative
	// tolerance would collapse to nothing.
	maintainDailyBandKcal = 100

	// insightDriftShare triggers a suggestion when the 7-day rolling
	// average balance is more than this fraction off the daily target.
	insightDriftShare = 0.20

	// maintainWeightBandKg is how far weight may drift from a maintain
	// goal's target before the trend is called out.
	maintainWeightBandKg = 0.5
)

type PeriodProgress struct {
	Status     TrackStatus `json:"status"`
	ActualKcal float64     `json:"actual_kcal"`
	TargetKcal float64     `json:"target_kcal"`
	Days       int         `json:"days"`
}

type ProgressReport struct {
	Weekly        PeriodProgress `json:"weekly"`
	Overall       PeriodProgress `json:"overall"`
	DaysRemaining int            `json:"days_remaining"`
	Insights      []string       `json:"insights"`
}

// EvaluateProgress classifies the user against the goal's weekly and
// cumulative balance targets and derives advisory insights. A nil goal
// yields an explicit no-goal report with neutral fields, never an error.
// Pure over its inputs; today fixes all date arithmetic.
func EvaluateProgress(goal *model.Goal, currentWeightKg float64, balances []model.CalorieBalance, today time.Time) ProgressReport {
	if goal == nil {
		return ProgressReport{
			Weekly:        PeriodProgress{Status: TrackNoGoal},
			Overall:       PeriodProgress{Status: TrackNoGoal},
			DaysRemaining: -1,
		}
	}

	daily := goal.DailyAdjustment()
	todayStart := beginningOfDay(today)
	weekStart := beginningOfWeek(today)

	weekly := PeriodProgress{TargetKcal: daily * 7}
	for _, b := range balances {
		d, err := time.ParseInLocation("2006-01-02", b.Date, time.Local)
		if err != nil {
			continue
		}
		if d.Before(weekStart) || d.After(todayStart) {
			continue
		}
		weekly.ActualKcal += b.Balance
		weekly.Days++
	}
	weekly.Status = classifyBalance(weekly.ActualKcal, weekly.TargetKcal, weeklyTolerance, 7)

	goalStart := beginningOfDay(goal.CreatedAt)
	daysElapsed := int(todayStart.Sub(goalStart).Hours()/24) + 1
	if daysElapsed < 1 {
		daysElapsed = 1
	}
	overall := PeriodProgress{TargetKcal: daily * float64(daysElapsed)}
	for _, b := range balances {
		d, err := time.ParseInLocation("2006-01-02", b.Date, time.Local)
		if err != nil {
			continue
		}
		if d.Before(goalStart) || d.After(todayStart) {
			continue
		}
		overall.ActualKcal += b.Balance
		overall.Days++
	}
	overall.Status = classifyBalance(overall.ActualKcal, overall.TargetKcal, overallTolerance, daysElapsed)

	return ProgressReport{
		Weekly:        weekly,
		Overall:       overall,
		DaysRemaining: daysRemaining(goal, currentWeightKg, todayStart),
		Insights:      buildInsights(goal, currentWeightKg, balances, todayStart),
	}
}

// classifyBalance compares a summed balance against its target with
// sign-aware semantics: behind a deficit goal means too little deficit,
// behind a surplus goal means too little surplus.
func classifyBalance(actual, target, tolerance float64, days int) TrackStatus {
	if target == 0 {
		band := float64(maintainDailyBandKcal * days)
		if math.Abs(actual) <= band {
			return TrackOnTarget
		}
		if actual > 0 {
			return TrackAhead
		}
		return TrackBehind
	}
	if math.Abs(actual-target) <= tolerance*math.Abs(target) {
		return TrackOnTarget
	}
	if target < 0 {
		// Deficit goal: a less negative sum means the deficit is smaller
		// than planned.
		if actual > target {
			return TrackBehind
		}
		return TrackAhead
	}
	// Surplus goal.
	if actual < target {
		return TrackBehind
	}
	return TrackAhead
}

// daysRemaining uses an explicit target date when set, otherwise estimates
// from the remaining weight delta and weekly rate. -1 means indeterminate.
func daysRemaining(goal *model.Goal, currentWeightKg float64, today time.Time) int {
	if goal.TargetDate != "" {
		target, err := time.ParseInLocation("2006-01-02", goal.TargetDate, time.Local)
		if err == nil {
			days := int(math.Ceil(target.Sub(today).Hours() / 24))
			if days < 0 {
				days = 0
			}
			return days
		}
	}
	if currentWeightKg > 0 {
		if weeks, ok := EstimatedWeeksToGoal(currentWeightKg, goal.TargetWeightKg, goal.WeeklyRateKg); ok {
			return int(math.Ceil(weeks * 7))
		}
	}
	return -1
}

// buildInsights derives advisory text from simple threshold rules. They
// degrade with short history: fewer than seven days of balances uses
// whatever exists, and an empty history produces no trend insight at all.
func buildInsights(goal *model.Goal, currentWeightKg float64, balances []model.CalorieBalance, today time.Time) []string {
	insights := make([]string, 0)
	daily := goal.DailyAdjustment()

	if goal.Type == model.GoalMaintain && goal.TargetWeightKg != nil && currentWeightKg > 0 {
		drift := currentWeightKg - *goal.TargetWeightKg
		if math.Abs(drift) > maintainWeightBandKg {
			direction := "above"
			if drift < 0 {
				direction = "below"
			}
			insights = append(insights, fmt.Sprintf(
				"Weight is %.1f kg %s the maintenance target; keep an eye on the trend.",
				math.Abs(drift), direction))
		}
	}

	recent := make([]model.CalorieBalance, 0, 7)
	for _, b := range balances {
		d, err := time.ParseInLocation("2006-01-02", b.Date, time.Local)
		if err != nil {
			continue
		}
		if d.After(today) || d.Before(today.AddDate(0, 0, -6)) {
			continue
		}
		recent = append(recent, b)
	}
	if len(recent) == 0 {
		return insights
	}

	var sum float64
	unlogged := 0
	estimated := 0
	for _, b := range recent {
		sum += b.Balance
		if b.CaloriesConsumed == 0 {
			unlogged++
		}
		if !b.UsingMeasured {
			estimated++
		}
	}
	avg := sum / float64(len(recent))

	if daily != 0 && math.Abs(avg-daily) > insightDriftShare*math.Abs(daily) {
		if (daily < 0 && avg > daily) || (daily > 0 && avg < daily) {
			insights = append(insights, fmt.Sprintf(
				"Your %d-day average balance (%.0f kcal) is behind the daily target of %.0f kcal; consider adjusting intake or activity.",
				len(recent), avg, daily))
		} else {
			insights = append(insights, fmt.Sprintf(
				"Your %d-day average balance (%.0f kcal) is well past the daily target of %.0f kcal; a more gradual pace is easier to sustain.",
				len(recent), avg, daily))
		}
	}
	if unlogged > 2 {
		insights = append(insights, fmt.Sprintf(
			"%d of the last %d days have no logged food; balances for those days understate intake.",
			unlogged, len(recent)))
	}
	if estimated == len(recent) {
		insights = append(insights, "All recent balances use estimated energy; connect a health data source for measured expenditure.")
	}
	return insights
}
