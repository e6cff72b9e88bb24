package service_test

import (
	"testing"

	"caltrack/internal/service"
)

func TestConfigRoundTripAndOverwrite(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, ok, err := service.GetConfig(db, service.ConfigRefreshInterval); err != nil || ok {
		t.Fatalf("get unset key: ok=%v err=%v, want absent", ok, err)
	}

	if err := service.SetConfig(db, service.ConfigRefreshInterval, "2m"); err != nil {
		t.Fatalf("set config: %v", err)
	}
	if err := service.SetConfig(db, service.ConfigRefreshInterval, "10m"); err != nil {
		t.Fatalf("overwrite config: %v", err)
	}
	if err := service.SetConfig(db, service.ConfigWaterTargetMl, "2500"); err != nil {
		t.Fatalf("set second key: %v", err)
	}

	value, ok, err := service.GetConfig(db, service.ConfigRefreshInterval)
	if err != nil || !ok {
		t.Fatalf("get config: ok=%v err=%v", ok, err)
	}
	if value != "10m" {
		t.Fatalf("value = %q, want last write 10m", value)
	}

	all, err := service.ListConfig(db)
	if err != nil {
		t.Fatalf("list config: %v", err)
	}
	if len(all) != 2 || all[service.ConfigWaterTargetMl] != "2500" {
		t.Fatalf("config map = %v, want two entries", all)
	}
}
