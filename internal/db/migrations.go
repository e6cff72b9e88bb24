package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_profile (
  id INTEGER PRIMARY KEY CHECK(id = 1),
  name TEXT NOT NULL DEFAULT '',
  sex TEXT NOT NULL DEFAULT '',
  age INTEGER NOT NULL DEFAULT 0 CHECK(age >= 0 AND age <= 130),
  height_cm REAL NOT NULL DEFAULT 0 CHECK(height_cm >= 0),
  weight_kg REAL NOT NULL CHECK(weight_kg > 0 AND weight_kg < 1000),
  unit TEXT NOT NULL DEFAULT 'kg',
  activity_level TEXT NOT NULL DEFAULT 'sedentary',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS goals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  goal_type TEXT NOT NULL CHECK(goal_type IN ('lose', 'maintain', 'gain')),
  target_weight_kg REAL CHECK(target_weight_kg > 0 AND target_weight_kg < 1000),
  target_date TEXT,
  weekly_rate_kg REAL NOT NULL,
  calorie_target REAL NOT NULL CHECK(calorie_target >= 0),
  protein_target_g REAL NOT NULL CHECK(protein_target_g >= 0),
  carbs_target_g REAL NOT NULL CHECK(carbs_target_g >= 0),
  fat_target_g REAL NOT NULL CHECK(fat_target_g >= 0),
  sat_fat_target_g REAL NOT NULL CHECK(sat_fat_target_g >= 0),
  water_target_ml REAL NOT NULL CHECK(water_target_ml >= 0),
  active INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_goals_single_active ON goals(active) WHERE active = 1;

CREATE TABLE IF NOT EXISTS food_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  calories INTEGER NOT NULL CHECK(calories > 0 AND calories <= 10000),
  protein_g REAL CHECK(protein_g >= 0 AND protein_g <= 1000),
  carbs_g REAL CHECK(carbs_g >= 0 AND carbs_g <= 1000),
  fat_g REAL CHECK(fat_g >= 0 AND fat_g <= 1000),
  meal TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  consumed_at DATETIME NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_food_entries_consumed_at ON food_entries(consumed_at);

CREATE TABLE IF NOT EXISTS water_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  amount_ml REAL NOT NULL CHECK(amount_ml > 0),
  logged_at DATETIME NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_water_events_logged_at ON water_events(logged_at);

CREATE TABLE IF NOT EXISTS exercise_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  exercise_type TEXT NOT NULL,
  calories_burned INTEGER NOT NULL CHECK(calories_burned >= 0),
  duration_min INTEGER CHECK(duration_min > 0),
  performed_at DATETIME NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_exercise_logs_performed_at ON exercise_logs(performed_at);

CREATE TABLE IF NOT EXISTS daily_nutrition (
  date TEXT PRIMARY KEY,
  calories INTEGER NOT NULL DEFAULT 0,
  protein_g REAL NOT NULL DEFAULT 0,
  carbs_g REAL NOT NULL DEFAULT 0,
  fat_g REAL NOT NULL DEFAULT 0,
  water_ml REAL NOT NULL DEFAULT 0,
  exercise_calories INTEGER NOT NULL DEFAULT 0,
  calorie_target REAL NOT NULL DEFAULT 0,
  protein_target_g REAL NOT NULL DEFAULT 0,
  carbs_target_g REAL NOT NULL DEFAULT 0,
  fat_target_g REAL NOT NULL DEFAULT 0,
  water_target_ml REAL NOT NULL DEFAULT 0,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 2,
		name:    "health_samples",
		sql: `
CREATE TABLE IF NOT EXISTS workout_samples (
  id TEXT PRIMARY KEY,
  activity_type TEXT NOT NULL,
  started_at DATETIME NOT NULL,
  ended_at DATETIME NOT NULL,
  duration_min REAL NOT NULL CHECK(duration_min >= 0),
  energy_kcal REAL CHECK(energy_kcal >= 0),
  distance_km REAL CHECK(distance_km >= 0),
  source TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_workout_samples_started_at ON workout_samples(started_at);

CREATE TABLE IF NOT EXISTS weight_samples (
  id TEXT PRIMARY KEY,
  measured_at DATETIME NOT NULL,
  weight_kg REAL NOT NULL CHECK(weight_kg > 0 AND weight_kg < 1000),
  source TEXT NOT NULL DEFAULT 'manual',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_weight_samples_measured_at ON weight_samples(measured_at);
`,
	},
	{
		version: 3,
		name:    "goal_water_override",
		sql: `
ALTER TABLE goals ADD COLUMN water_override INTEGER NOT NULL DEFAULT 0;
`,
	},
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	return nil
}
