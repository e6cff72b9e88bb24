package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"caltrack/internal/bus"
	"caltrack/internal/model"
)

type SetGoalInput struct {
	Type         model.GoalType
	WeeklyRateKg float64
	TargetWeight *float64
	Unit         string
	TargetDate   string
	WaterMl      float64
	// MeasuredTDEE, when > 0, replaces the formula baseline (measured
	// expenditure beats a population-average estimate).
	MeasuredTDEE float64
}

// SetGoal validates the goal parameters, derives calorie/macro targets from
// the current profile, deactivates any previous active goal, and stores the
// new one as active.
func SetGoal(db *sql.DB, b *bus.Bus, in SetGoalInput) (*model.Goal, error) {
	var targetKg *float64
	if in.TargetWeight != nil {
		kg, err := convertWeightToKg(*in.TargetWeight, in.Unit)
		if err != nil {
			return nil, validationErrorf("target_weight", "must be > 0")
		}
		targetKg = &kg
	}
	in.TargetDate = strings.TrimSpace(in.TargetDate)
	params := GoalParams{
		Type:           in.Type,
		WeeklyRateKg:   in.WeeklyRateKg,
		TargetWeightKg: targetKg,
		TargetDate:     in.TargetDate,
	}
	if err := ValidateGoal(params, time.Now()); err != nil {
		return nil, err
	}

	profile, err := GetProfile(db)
	if err != nil {
		return nil, err
	}
	var p model.UserProfile
	if profile != nil {
		p = *profile
	}
	baseline, _ := EnergyBaseline(p, in.MeasuredTDEE)
	targets := ComputeTargets(p, in.Type, in.WeeklyRateKg, baseline)
	waterOverride := 0
	if in.WaterMl > 0 {
		targets.WaterMl = in.WaterMl
		waterOverride = 1
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin goal tx: %w", err)
	}
	if _, err := tx.Exec(`UPDATE goals SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE active = 1`); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("deactivate previous goal: %w", err)
	}
	res, err := tx.Exec(`
INSERT INTO goals(goal_type, target_weight_kg, target_date, weekly_rate_kg,
  calorie_target, protein_target_g, carbs_target_g, fat_target_g, sat_fat_target_g, water_target_ml, water_override, active)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
`, string(in.Type), targetKg, nullIfEmpty(in.TargetDate), in.WeeklyRateKg,
		targets.Calories, targets.ProteinG, targets.CarbsG, targets.FatG, targets.SatFatG, targets.WaterMl, waterOverride)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("resolve inserted goal id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit goal tx: %w", err)
	}

	publish(b, bus.GoalChanged, "")
	return goalByID(db, id)
}

// ActiveGoal returns the active goal, or nil when none exists.
func ActiveGoal(db *sql.DB) (*model.Goal, error) {
	row := db.QueryRow(goalSelect + ` WHERE active = 1`)
	goal, err := scanGoal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load active goal: %w", err)
	}
	return goal, nil
}

// GoalHistory lists all goals newest first, the active one included.
func GoalHistory(db *sql.DB) ([]model.Goal, error) {
	rows, err := db.Query(goalSelect + ` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list goal history: %w", err)
	}
	defer rows.Close()

	goals := make([]model.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// retargetActiveGoal recomputes the active goal's derived targets against
// the current profile. Called on every weight or profile change so stored
// targets never go stale.
func retargetActiveGoal(db *sql.DB) error {
	goal, err := ActiveGoal(db)
	if err != nil {
		return err
	}
	if goal == nil {
		return nil
	}
	profile, err := GetProfile(db)
	if err != nil {
		return err
	}
	var p model.UserProfile
	if profile != nil {
		p = *profile
	}
	baseline, _ := EnergyBaseline(p, 0)
	targets := ComputeTargets(p, goal.Type, goal.WeeklyRateKg, baseline)
	if goal.WaterOverridden {
		targets.WaterMl = goal.WaterMl
	}

	_, err = db.Exec(`
UPDATE goals
SET calorie_target = ?, protein_target_g = ?, carbs_target_g = ?, fat_target_g = ?,
  sat_fat_target_g = ?, water_target_ml = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, targets.Calories, targets.ProteinG, targets.CarbsG, targets.FatG, targets.SatFatG, targets.WaterMl, goal.ID)
	if err != nil {
		return fmt.Errorf("retarget goal %d: %w", goal.ID, err)
	}
	return nil
}

const goalSelect = `
SELECT id, goal_type, target_weight_kg, target_date, weekly_rate_kg,
  calorie_target, protein_target_g, carbs_target_g, fat_target_g, sat_fat_target_g, water_target_ml,
  water_override, active, created_at, updated_at
FROM goals`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*model.Goal, error) {
	var g model.Goal
	var goalType string
	var targetWeight sql.NullFloat64
	var targetDate sql.NullString
	var waterOverride, active int
	err := row.Scan(&g.ID, &goalType, &targetWeight, &targetDate, &g.WeeklyRateKg,
		&g.CalorieTarget, &g.ProteinG, &g.CarbsG, &g.FatG, &g.SatFatG, &g.WaterMl,
		&waterOverride, &active, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Type = model.GoalType(goalType)
	if targetWeight.Valid {
		v := targetWeight.Float64
		g.TargetWeightKg = &v
	}
	if targetDate.Valid {
		g.TargetDate = targetDate.String
	}
	g.WaterOverridden = waterOverride == 1
	g.Active = active == 1
	return &g, nil
}

func goalByID(db *sql.DB, id int64) (*model.Goal, error) {
	goal, err := scanGoal(db.QueryRow(goalSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("load goal %d: %w", id, err)
	}
	return goal, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
