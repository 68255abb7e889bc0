package health

import "battwatch/internal/models"

// EstimatorConfig holds the plausibility thresholds for capacity estimation.
type EstimatorConfig struct {
	MinPercentDelta int
	MinPlausibleMAH int
	MaxPlausibleMAH int
}

// DefaultEstimatorConfig returns the reference thresholds.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		MinPercentDelta: 5,
		MinPlausibleMAH: 500,
		MaxPlausibleMAH: 20000,
	}
}

// EstimateCapacity extrapolates the battery's full capacity in mAh from a pair
// of charge-counter readings (µAh) and the matching percentage readings.
// Returns false when the inputs cannot support a reliable estimate: a missing
// counter, too small a percentage change, a non-positive charge delta, or a
// result outside the plausibility band.
func EstimateCapacity(startCounterUAH, endCounterUAH *int64, startPercent, endPercent int, cfg EstimatorConfig) (int, bool) {
	return EstimateCapacityBetween(
		models.Snapshot{Percentage: startPercent, ChargeCounterUAH: startCounterUAH},
		models.Snapshot{Percentage: endPercent, ChargeCounterUAH: endCounterUAH},
		cfg,
	)
}

// EstimateCapacityBetween applies the estimator to a pair of snapshots.
func EstimateCapacityBetween(start, end models.Snapshot, cfg EstimatorConfig) (int, bool) {
	percentDelta := start.PercentDelta(end)
	if percentDelta < cfg.MinPercentDelta {
		return 0, false
	}

	chargedMAH := start.ChargeDeltaMAH(end)
	if chargedMAH == nil || *chargedMAH <= 0 {
		return 0, false
	}

	estimated := int(*chargedMAH / (float64(percentDelta) / 100.0))
	if estimated < cfg.MinPlausibleMAH || estimated > cfg.MaxPlausibleMAH {
		return 0, false
	}
	return estimated, true
}
