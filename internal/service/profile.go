package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"caltrack/internal/bus"
	"caltrack/internal/model"
)

type SetProfileInput struct {
	Name          string
	Sex           string
	Age           int
	HeightCm      float64
	Weight        float64
	Unit          string
	ActivityLevel string
}

// SetProfile upserts the single user profile and records the weight as a
// manual weight sample. An existing active goal is retargeted against the
// new weight so its derived targets are never stale.
func SetProfile(db *sql.DB, b *bus.Bus, in SetProfileInput) error {
	weightKg, err := convertWeightToKg(in.Weight, in.Unit)
	if err != nil {
		return err
	}
	if weightKg >= 1000 {
		return validationErrorf("weight", "must be below 1000 kg, got %.1f", weightKg)
	}
	if in.Age < 1 || in.Age > 130 {
		return validationErrorf("age", "must be between 1 and 130, got %d", in.Age)
	}
	if in.HeightCm <= 0 || in.HeightCm > 300 {
		return validationErrorf("height", "must be in (0, 300] cm, got %.1f", in.HeightCm)
	}
	in.Sex = strings.ToLower(strings.TrimSpace(in.Sex))
	switch in.Sex {
	case "", "male", "female", "other":
	default:
		return validationErrorf("sex", "unknown value %q (use male, female, other)", in.Sex)
	}
	in.ActivityLevel = strings.ToLower(strings.TrimSpace(in.ActivityLevel))
	if in.ActivityLevel == "" {
		in.ActivityLevel = "sedentary"
	}
	if _, ok := activityMultipliers[in.ActivityLevel]; !ok {
		return validationErrorf("activity", "unknown level %q (use sedentary, light, moderate, active, very_active)", in.ActivityLevel)
	}
	unit := strings.ToLower(strings.TrimSpace(in.Unit))
	if unit == "" {
		unit = "kg"
	}

	_, err = db.Exec(`
INSERT INTO user_profile(id, name, sex, age, height_cm, weight_kg, unit, activity_level)
VALUES(1, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  sex=excluded.sex,
  age=excluded.age,
  height_cm=excluded.height_cm,
  weight_kg=excluded.weight_kg,
  unit=excluded.unit,
  activity_level=excluded.activity_level,
  updated_at=CURRENT_TIMESTAMP
`, strings.TrimSpace(in.Name), in.Sex, in.Age, in.HeightCm, weightKg, unit, in.ActivityLevel)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if err := recordWeightSample(db, weightKg, time.Now(), "manual"); err != nil {
		return err
	}
	if err := retargetActiveGoal(db); err != nil {
		return err
	}
	publish(b, bus.WeightChanged, "")
	publish(b, bus.GoalChanged, "")
	return nil
}

// GetProfile returns the user profile, or nil when none has been saved.
func GetProfile(db *sql.DB) (*model.UserProfile, error) {
	var p model.UserProfile
	err := db.QueryRow(`
SELECT name, sex, age, height_cm, weight_kg, unit, activity_level, created_at, updated_at
FROM user_profile WHERE id = 1
`).Scan(&p.Name, &p.Sex, &p.Age, &p.HeightCm, &p.WeightKg, &p.Unit, &p.ActivityLevel, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

// UpdateWeight records a new body weight, updates the profile, and
// retargets the active goal against it.
func UpdateWeight(db *sql.DB, b *bus.Bus, weight float64, unit, source string, at time.Time) error {
	weightKg, err := convertWeightToKg(weight, unit)
	if err != nil {
		return err
	}
	if weightKg >= 1000 {
		return validationErrorf("weight", "must be below 1000 kg, got %.1f", weightKg)
	}
	if at.IsZero() {
		at = time.Now()
	}
	if source == "" {
		source = "manual"
	}

	res, err := db.Exec(`UPDATE user_profile SET weight_kg = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1`, weightKg)
	if err != nil {
		return fmt.Errorf("update profile weight: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected for weight update: %w", err)
	}
	if affected == 0 {
		return validationErrorf("profile", "no profile saved yet, run profile set first")
	}

	if err := recordWeightSample(db, weightKg, at, source); err != nil {
		return err
	}
	if err := retargetActiveGoal(db); err != nil {
		return err
	}
	publish(b, bus.WeightChanged, dayKey(at))
	publish(b, bus.GoalChanged, "")
	return nil
}

// LatestWeightKg prefers the most recent weight sample over the profile
// figure, so measured updates that arrived after a profile edit win.
func LatestWeightKg(db *sql.DB) (float64, bool, error) {
	var kg float64
	err := db.QueryRow(`SELECT weight_kg FROM weight_samples ORDER BY measured_at DESC LIMIT 1`).Scan(&kg)
	if err == nil {
		return kg, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("load latest weight sample: %w", err)
	}
	profile, err := GetProfile(db)
	if err != nil {
		return 0, false, err
	}
	if profile == nil {
		return 0, false, nil
	}
	return profile.WeightKg, true, nil
}

// WeightHistory lists weight samples newest first, up to limit.
func WeightHistory(db *sql.DB, limit int) ([]model.WeightSample, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
SELECT id, measured_at, weight_kg, source
FROM weight_samples ORDER BY measured_at DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list weight samples: %w", err)
	}
	defer rows.Close()

	items := make([]model.WeightSample, 0)
	for rows.Next() {
		var s model.WeightSample
		var measuredRaw string
		if err := rows.Scan(&s.ID, &measuredRaw, &s.WeightKg, &s.Source); err != nil {
			return nil, fmt.Errorf("scan weight sample: %w", err)
		}
		measured, err := time.Parse(time.RFC3339, measuredRaw)
		if err != nil {
			return nil, fmt.Errorf("parse measured_at: %w", err)
		}
		s.MeasuredAt = measured
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight samples: %w", err)
	}
	return items, nil
}

func recordWeightSample(db *sql.DB, weightKg float64, at time.Time, source string) error {
	_, err := db.Exec(`
INSERT INTO weight_samples(id, measured_at, weight_kg, source)
VALUES(?, ?, ?, ?)
`, uuid.NewString(), at.Format(time.RFC3339), weightKg, source)
	if err != nil {
		return fmt.Errorf("record weight sample: %w", err)
	}
	return nil
}

func convertWeightToKg(value float64, unit string) (float64, error) {
	if value <= 0 {
		return 0, validationErrorf("weight", "must be > 0")
	}
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" {
		u = "kg"
	}
	switch u {
	case "kg":
		return value, nil
	case "lb", "lbs":
		return value * 0.45359237, nil
	default:
		return 0, validationErrorf("weight_unit", "invalid unit %q (use kg or lb)", unit)
	}
}

func publish(b *bus.Bus, kind bus.Kind, date string) {
	if b == nil {
		return
	}
	b.Publish(bus.Event{Kind: kind, Date: date})
}
