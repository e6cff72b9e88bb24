package service_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"caltrack/internal/model"
	"caltrack/internal/service"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLoseGoalTargetsFromFormula(t *testing.T) {
	t.Parallel()
	profile := model.UserProfile{
		Sex:           "male",
		Age:           30,
		HeightCm:      175,
		WeightKg:      70,
		ActivityLevel: "moderate",
	}

	bmr := service.BMR(profile.WeightKg, profile.HeightCm, profile.Age, profile.Sex)
	if !almostEqual(bmr, 1648.75) {
		t.Fatalf("BMR = %v, want 1648.75", bmr)
	}

	baseline, source := service.EnergyBaseline(profile, 0)
	if !almostEqual(baseline, 2555.5625) {
		t.Fatalf("baseline = %v, want 2555.5625", baseline)
	}
	if source != service.BaselineFormula {
		t.Fatalf("baseline source = %v, want formula", source)
	}

	targets := service.ComputeTargets(profile, model.GoalLose, -0.5, baseline)
	if !almostEqual(targets.Calories, 2005.5625) {
		t.Fatalf("calorie target = %v, want 2005.5625", targets.Calories)
	}
	if !almostEqual(targets.ProteinG, 112) {
		t.Fatalf("protein target = %v, want 112", targets.ProteinG)
	}
	if targets.WaterMl != service.DefaultWaterTargetMl {
		t.Fatalf("water target = %v, want %v", targets.WaterMl, service.DefaultWaterTargetMl)
	}
}

func TestMaintainGoalMatchesBaseline(t *testing.T) {
	t.Parallel()
	profile := model.UserProfile{
		Sex:           "female",
		Age:           28,
		HeightCm:      165,
		WeightKg:      60,
		ActivityLevel: "light",
	}
	baseline, _ := service.EnergyBaseline(profile, 0)

	targets := service.ComputeTargets(profile, model.GoalMaintain, 0, baseline)
	if !almostEqual(targets.Calories, baseline) {
		t.Fatalf("maintain calorie target = %v, want baseline %v", targets.Calories, baseline)
	}
	if targets.ProteinG < 0.8*profile.WeightKg || targets.ProteinG > 1.2*profile.WeightKg {
		t.Fatalf("maintain protein target %v outside 0.8-1.2 g/kg", targets.ProteinG)
	}
}

func TestMeasuredTDEEBeatsFormula(t *testing.T) {
	t.Parallel()
	profile := model.UserProfile{
		Sex:           "male",
		Age:           30,
		HeightCm:      175,
		WeightKg:      70,
		ActivityLevel: "moderate",
	}
	baseline, source := service.EnergyBaseline(profile, 2700)
	if baseline != 2700 {
		t.Fatalf("baseline = %v, want measured 2700", baseline)
	}
	if source != service.BaselineMeasured {
		t.Fatalf("baseline source = %v, want measured", source)
	}
}

func TestBaselineDefaultWithoutProfileData(t *testing.T) {
	t.Parallel()
	baseline, source := service.EnergyBaseline(model.UserProfile{}, 0)
	if baseline != 2000 {
		t.Fatalf("baseline = %v, want 2000 default", baseline)
	}
	if source != service.BaselineDefault {
		t.Fatalf("baseline source = %v, want default", source)
	}
}

func TestComputeTargetsDeterministic(t *testing.T) {
	t.Parallel()
	profile := model.UserProfile{Sex: "other", Age: 40, HeightCm: 180, WeightKg: 85, ActivityLevel: "active"}
	baseline, _ := service.EnergyBaseline(profile, 0)
	first := service.ComputeTargets(profile, model.GoalGain, 0.25, baseline)
	for i := 0; i < 10; i++ {
		if got := service.ComputeTargets(profile, model.GoalGain, 0.25, baseline); got != first {
			t.Fatalf("run %d: targets %+v != %+v", i, got, first)
		}
	}
}

func TestSaturatedFatCap(t *testing.T) {
	t.Parallel()
	profile := model.UserProfile{Sex: "male", Age: 30, HeightCm: 175, WeightKg: 70, ActivityLevel: "moderate"}
	baseline, _ := service.EnergyBaseline(profile, 0)
	targets := service.ComputeTargets(profile, model.GoalLose, -0.5, baseline)

	fromCalories := targets.Calories * 0.10 / 9
	fromFat := targets.FatG / 3
	want := math.Min(fromCalories, fromFat)
	if !almostEqual(targets.SatFatG, want) {
		t.Fatalf("sat fat = %v, want min(%v, %v)", targets.SatFatG, fromCalories, fromFat)
	}
}

func TestValidateGoalRateBounds(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	cases := []struct {
		name      string
		params    service.GoalParams
		suggested float64
	}{
		{
			name:      "lose too fast",
			params:    service.GoalParams{Type: model.GoalLose, WeeklyRateKg: -1.5},
			suggested: -1,
		},
		{
			name:      "lose positive rate",
			params:    service.GoalParams{Type: model.GoalLose, WeeklyRateKg: 0.3},
			suggested: 0,
		},
		{
			name:      "gain too fast",
			params:    service.GoalParams{Type: model.GoalGain, WeeklyRateKg: 0.8},
			suggested: 0.5,
		},
		{
			name:      "maintain drifting",
			params:    service.GoalParams{Type: model.GoalMaintain, WeeklyRateKg: 0.4},
			suggested: 0.1,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := service.ValidateGoal(tc.params, now)
			var safety *service.GoalSafetyError
			if !errors.As(err, &safety) {
				t.Fatalf("expected GoalSafetyError, got %v", err)
			}
			if !almostEqual(safety.Suggested, tc.suggested) {
				t.Fatalf("suggested = %v, want %v", safety.Suggested, tc.suggested)
			}
		})
	}
}

func TestValidateGoalAcceptsSafeRates(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	future := "2026-06-01"
	target := 65.0

	params := service.GoalParams{
		Type:           model.GoalLose,
		WeeklyRateKg:   -0.5,
		TargetWeightKg: &target,
		TargetDate:     future,
	}
	if err := service.ValidateGoal(params, now); err != nil {
		t.Fatalf("safe goal rejected: %v", err)
	}
}

func TestValidateGoalRejectsPastTargetDate(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	params := service.GoalParams{
		Type:         model.GoalLose,
		WeeklyRateKg: -0.5,
		TargetDate:   "2026-02-01",
	}
	err := service.ValidateGoal(params, now)
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestEstimatedWeeksToGoal(t *testing.T) {
	t.Parallel()
	target := 65.0
	weeks, ok := service.EstimatedWeeksToGoal(70, &target, -0.5)
	if !ok {
		t.Fatal("expected estimate")
	}
	if !almostEqual(weeks, 10) {
		t.Fatalf("weeks = %v, want 10", weeks)
	}

	if _, ok := service.EstimatedWeeksToGoal(70, nil, -0.5); ok {
		t.Fatal("expected no estimate without target weight")
	}
	if _, ok := service.EstimatedWeeksToGoal(70, &target, 0); ok {
		t.Fatal("expected no estimate with zero rate")
	}
	// Rate pointing away from the target never converges.
	if _, ok := service.EstimatedWeeksToGoal(70, &target, 0.5); ok {
		t.Fatal("expected no estimate when rate moves away from target")
	}
}
