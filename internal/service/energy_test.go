package service_test

import (
	"testing"

	"caltrack/internal/service"
)

func TestResolveEnergyEstimatedFallback(t *testing.T) {
	t.Parallel()
	got := service.ResolveEnergy(0, 0, 1800)
	if got.UsingMeasured {
		t.Fatal("expected estimated resolution")
	}
	if got.Resting != 1800 {
		t.Fatalf("resting = %v, want 1800", got.Resting)
	}
	if got.Active != 360 {
		t.Fatalf("active = %v, want 360 (20%% of resting)", got.Active)
	}
}

func TestResolveEnergyMeasuredBeatsEstimate(t *testing.T) {
	t.Parallel()
	got := service.ResolveEnergy(1700, 450, 1800)
	if !got.UsingMeasured {
		t.Fatal("expected measured resolution")
	}
	if got.Resting != 1700 || got.Active != 450 {
		t.Fatalf("resolution = %+v, want resting 1700 active 450", got)
	}
}

func TestResolveEnergyPartialMeasurement(t *testing.T) {
	t.Parallel()

	// Measured active only: resting falls back to the estimate.
	got := service.ResolveEnergy(0, 450, 1800)
	if !got.UsingMeasured {
		t.Fatal("expected measured resolution with measured active")
	}
	if got.Resting != 1800 || got.Active != 450 {
		t.Fatalf("resolution = %+v, want resting 1800 active 450", got)
	}

	// Measured resting only: active falls back to the synthetic share.
	got = service.ResolveEnergy(1700, 0, 1800)
	if !got.UsingMeasured {
		t.Fatal("expected measured resolution with measured resting")
	}
	if got.Resting != 1700 || got.Active != 1800*0.20 {
		t.Fatalf("resolution = %+v, want resting 1700 active 360", got)
	}
}
