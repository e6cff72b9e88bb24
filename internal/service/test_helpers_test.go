package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"caltrack/internal/db"
	"caltrack/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "caltrack.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func setTestProfile(t *testing.T, sqldb *sql.DB) {
	t.Helper()
	err := service.SetProfile(sqldb, nil, service.SetProfileInput{
		Name:          "Test",
		Sex:           "male",
		Age:           30,
		HeightCm:      175,
		Weight:        70,
		Unit:          "kg",
		ActivityLevel: "moderate",
	})
	if err != nil {
		t.Fatalf("set profile: %v", err)
	}
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return d
}
