package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ConfigRefreshInterval overrides the balance engine's periodic
	// refresh, as a Go duration string (e.g. "5m").
	ConfigRefreshInterval = "refresh_interval"
	// ConfigWaterTargetMl overrides the default daily water target.
	ConfigWaterTargetMl = "water_target_ml"
)

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

// WaterTargetMl resolves the daily water target used when no active goal
// supplies one: the app_config override when set to a positive number,
// else the default. An unparseable stored value falls back to the default
// rather than zeroing the target.
func WaterTargetMl(db *sql.DB) (float64, error) {
	value, ok, err := GetConfig(db, ConfigWaterTargetMl)
	if err != nil {
		return 0, err
	}
	if ok {
		if ml, err := strconv.ParseFloat(value, 64); err == nil && ml > 0 {
			return ml, nil
		}
	}
	return DefaultWaterTargetMl, nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}
