package service

import (
	"fmt"
	"math"
	"time"

	"caltrack/internal/model"
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// Single source of truth for valid activity levels; also used for profile
// input validation.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// Energy-balance and macro policy constants, kept in one place.
const (
	// KcalPerKg converts a weight delta to its calorie equivalent.
	KcalPerKg = 7700

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9

	// defaultMaintenanceKcal is used when neither a measured expenditure
	// nor a usable profile exists. A mid-range adult maintenance figure,
	// not an invented value.
	defaultMaintenanceKcal = 2000

	// DefaultWaterTargetMl applies unless the goal overrides it.
	DefaultWaterTargetMl = 2000

	// satFatCalorieShare caps saturated fat at 10% of daily calories; it is
	// additionally capped at one third of total fat.
	satFatCalorieShare = 0.10
)

// Protein grams per kg of body weight by goal type. Loss runs high to
// protect lean mass during a deficit.
var proteinPerKg = map[model.GoalType]float64{
	model.GoalLose:     1.6,
	model.GoalMaintain: 1.0,
	model.GoalGain:     1.4,
}

// Share of remaining (post-protein) calories allotted to carbs; the rest
// goes to fat. Loss favors a lower-carb split, gain a higher-carb one.
var carbShare = map[model.GoalType]float64{
	model.GoalLose:     0.40,
	model.GoalMaintain: 0.50,
	model.GoalGain:     0.60,
}

// Health-safe weekly rate bounds (kg/week) by goal type. Hard rejections,
// not advisory.
const (
	maxLossRateKg     = 1.0
	maxGainRateKg     = 0.5
	maxMaintainRateKg = 0.1
)

// BaselineSource tags where an energy baseline came from, so downstream
// consumers can label derived numbers instead of guessing from logs.
type BaselineSource string

const (
	BaselineMeasured BaselineSource = "measured"
	BaselineFormula  BaselineSource = "formula"
	BaselineDefault  BaselineSource = "default"
)

// BMR computes basal metabolic rate via Mifflin-St Jeor. Sexes other than
// male/female get the mean of the two formula constants.
func BMR(weightKg, heightCm float64, age int, sex string) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	switch sex {
	case "male":
		return base + 5
	case "female":
		return base - 161
	default:
		return base + (5-161)/2.0
	}
}

// EnergyBaseline picks the daily maintenance figure the calorie target is
// built on. A measured total expenditure beats the formula estimate; with
// no usable profile either, a documented default applies.
func EnergyBaseline(p model.UserProfile, measuredTDEE float64) (float64, BaselineSource) {
	if measuredTDEE > 0 {
		return measuredTDEE, BaselineMeasured
	}
	if p.WeightKg <= 0 {
		return defaultMaintenanceKcal, BaselineDefault
	}
	mult, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		mult = activityMultipliers["sedentary"]
	}
	return BMR(p.WeightKg, p.HeightCm, p.Age, p.Sex) * mult, BaselineFormula
}

type Targets struct {
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
	SatFatG  float64
	WaterMl  float64
}

// ComputeTargets derives daily calorie and macro targets from the profile,
// goal parameters, and energy baseline. Pure: same inputs, same outputs.
func ComputeTargets(p model.UserProfile, goalType model.GoalType, weeklyRateKg, baseline float64) Targets {
	out := Targets{
		Calories: baseline + weeklyRateKg*KcalPerKg/7,
		WaterMl:  DefaultWaterTargetMl,
	}
	if out.Calories < 0 {
		out.Calories = 0
	}

	out.ProteinG = p.WeightKg * proteinPerKg[goalType]
	remaining := out.Calories - out.ProteinG*kcalPerGramProtein
	if remaining < 0 {
		remaining = 0
	}
	share := carbShare[goalType]
	out.CarbsG = remaining * share / kcalPerGramCarbs
	out.FatG = remaining * (1 - share) / kcalPerGramFat

	out.SatFatG = math.Min(out.Calories*satFatCalorieShare/kcalPerGramFat, out.FatG/3)
	return out
}

// GoalParams are the user-supplied goal inputs validated before any derived
// target is computed or stored.
type GoalParams struct {
	Type           model.GoalType
	WeeklyRateKg   float64
	TargetWeightKg *float64
	TargetDate     string
}

// ValidateGoal rejects unsafe or nonsensical goal parameters. Weekly rates
// outside the safety bounds fail with GoalSafetyError carrying the nearest
// safe value; target weight and date problems fail with ValidationError.
func ValidateGoal(params GoalParams, now time.Time) error {
	switch params.Type {
	case model.GoalLose:
		if params.WeeklyRateKg < -maxLossRateKg || params.WeeklyRateKg > 0 {
			return &GoalSafetyError{
				Reason:    fmt.Sprintf("weekly rate %.2f kg outside safe loss range [-%.1f, 0]", params.WeeklyRateKg, maxLossRateKg),
				Suggested: SuggestSafeRate(params.Type, params.WeeklyRateKg),
			}
		}
	case model.GoalGain:
		if params.WeeklyRateKg < 0 || params.WeeklyRateKg > maxGainRateKg {
			return &GoalSafetyError{
				Reason:    fmt.Sprintf("weekly rate %.2f kg outside safe gain range [0, %.1f]", params.WeeklyRateKg, maxGainRateKg),
				Suggested: SuggestSafeRate(params.Type, params.WeeklyRateKg),
			}
		}
	case model.GoalMaintain:
		if math.Abs(params.WeeklyRateKg) > maxMaintainRateKg {
			return &GoalSafetyError{
				Reason:    fmt.Sprintf("weekly rate %.2f kg outside maintain range [-%.1f, %.1f]", params.WeeklyRateKg, maxMaintainRateKg, maxMaintainRateKg),
				Suggested: SuggestSafeRate(params.Type, params.WeeklyRateKg),
			}
		}
	default:
		return validationErrorf("goal_type", "unknown goal type %q (use lose, maintain, gain)", params.Type)
	}

	if params.TargetWeightKg != nil {
		w := *params.TargetWeightKg
		if w <= 0 || w >= 1000 {
			return validationErrorf("target_weight", "must be between 0 and 1000 kg exclusive, got %.1f", w)
		}
	}
	if params.TargetDate != "" {
		t, err := time.ParseInLocation("2006-01-02", params.TargetDate, time.Local)
		if err != nil {
			return validationErrorf("target_date", "invalid date %q (expected YYYY-MM-DD)", params.TargetDate)
		}
		if !t.After(beginningOfDay(now)) {
			return validationErrorf("target_date", "must be strictly in the future")
		}
	}
	return nil
}

// SuggestSafeRate returns the nearest health-safe weekly rate for the goal
// type. Advisory: callers decide whether to adopt it, nothing is clamped
// silently.
func SuggestSafeRate(goalType model.GoalType, rate float64) float64 {
	clamp := func(v, lo, hi float64) float64 {
		return math.Min(math.Max(v, lo), hi)
	}
	switch goalType {
	case model.GoalLose:
		return clamp(rate, -maxLossRateKg, 0)
	case model.GoalGain:
		return clamp(rate, 0, maxGainRateKg)
	default:
		return clamp(rate, -maxMaintainRateKg, maxMaintainRateKg)
	}
}

// EstimatedWeeksToGoal returns the weeks needed to reach the target weight
// at the goal's weekly rate. ok is false when the estimate is
// indeterminate: no target weight, a zero rate, or a rate moving away from
// the target.
func EstimatedWeeksToGoal(currentKg float64, targetKg *float64, weeklyRateKg float64) (weeks float64, ok bool) {
	if targetKg == nil || weeklyRateKg == 0 {
		return 0, false
	}
	delta := *targetKg - currentKg
	if delta*weeklyRateKg < 0 {
		return 0, false
	}
	return math.Abs(delta) / math.Abs(weeklyRateKg), true
}
