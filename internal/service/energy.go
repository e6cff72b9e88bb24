package service

// syntheticActiveShare is the fraction of resting energy assumed as active
// energy when no measurement exists. Approximation policy, flagged via
// UsingMeasured so consumers can label the result as estimated.
const syntheticActiveShare = 0.20

// EnergyResolution is the named outcome of choosing between measured and
// estimated energy figures, so the fallback decision is directly testable
// instead of an implicit branch.
type EnergyResolution struct {
	Resting       float64
	Active        float64
	UsingMeasured bool
}

// ResolveEnergy decides which energy-expenditure figures to trust for one
// date. If either measured figure is present (> 0) the measured data is
// authoritative; a missing measured component falls back individually to
// its estimate (resting from the formula figure, active as the synthetic
// share of it) rather than silently zero. With no measured data at all,
// both components come from the estimate and UsingMeasured is false.
//
// Measured data may arrive later than estimated data, so this must be
// called fresh per date, never cached as a one-time decision.
func ResolveEnergy(measuredResting, measuredActive, estimatedResting float64) EnergyResolution {
	if measuredResting > 0 || measuredActive > 0 {
		out := EnergyResolution{
			Resting:       measuredResting,
			Active:        measuredActive,
			UsingMeasured: true,
		}
		if out.Resting <= 0 {
			out.Resting = estimatedResting
		}
		if out.Active <= 0 {
			out.Active = estimatedResting * syntheticActiveShare
		}
		return out
	}
	return EnergyResolution{
		Resting:       estimatedResting,
		Active:        estimatedResting * syntheticActiveShare,
		UsingMeasured: false,
	}
}
