package health

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"battwatch/internal/models"
)

// ErrInsufficientData signals that no usable capacity estimates exist yet.
var ErrInsufficientData = errors.New("health: insufficient data")

// chargeWeight counts each charging-derived estimate twice: charging evidence
// covers a single bounded interval and is trusted more than ad-hoc discharge
// sampling.
const chargeWeight = 2

// SessionSource provides finalized sessions for aggregation.
type SessionSource interface {
	GetValidSessions(ctx context.Context) ([]models.Session, error)
	CountSessions(ctx context.Context) (int, error)
}

// SpecSource supplies the device's design capacity.
type SpecSource interface {
	Resolve(ctx context.Context) (*models.DeviceSpec, error)
}

// ReportCache receives the latest computed report for quick UI reads.
type ReportCache interface {
	SaveReport(ctx context.Context, report *models.HealthReport) error
}

// Aggregator turns valid sessions plus the device spec into a health report.
type Aggregator struct {
	sessions SessionSource
	specs    SpecSource
	cache    ReportCache
	logger   *zap.Logger
}

// NewAggregator builds aggregator.
func NewAggregator(sessions SessionSource, specs SpecSource, cache ReportCache, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		sessions: sessions,
		specs:    specs,
		cache:    cache,
		logger:   logger,
	}
}

// Compute produces the current health report, or ErrInsufficientData when no
// estimate survives filtering.
func (a *Aggregator) Compute(ctx context.Context) (*models.HealthReport, error) {
	valid, err := a.sessions.GetValidSessions(ctx)
	if err != nil {
		return nil, err
	}
	total, err := a.sessions.CountSessions(ctx)
	if err != nil {
		return nil, err
	}
	spec, err := a.specs.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	var chargeEstimates, dischargeEstimates []int
	for _, s := range valid {
		if s.EstimatedCapacityMAH == nil {
			continue
		}
		if s.ChargerType == models.ChargerDischarge {
			dischargeEstimates = append(dischargeEstimates, *s.EstimatedCapacityMAH)
		} else {
			chargeEstimates = append(chargeEstimates, *s.EstimatedCapacityMAH)
		}
	}

	chargeEstimates = FilterOutliers(chargeEstimates)
	dischargeEstimates = FilterOutliers(dischargeEstimates)

	var sum, count int
	for _, v := range chargeEstimates {
		sum += v * chargeWeight
		count += chargeWeight
	}
	for _, v := range dischargeEstimates {
		sum += v
		count++
	}
	if count == 0 {
		return nil, ErrInsufficientData
	}

	averageCapacity := sum / count
	healthPercent := float64(averageCapacity) / float64(spec.CapacityMAH) * 100.0
	if healthPercent > 105 {
		healthPercent = 105
	}
	if healthPercent < 0 {
		healthPercent = 0
	}

	report := &models.HealthReport{
		HealthPercent:        healthPercent,
		EstimatedCapacityMAH: averageCapacity,
		DesignCapacityMAH:    spec.CapacityMAH,
		Confidence:           ScoreConfidence(len(chargeEstimates)+len(dischargeEstimates), spec.Confidence, len(dischargeEstimates) > 0),
		ValidSessions:        len(valid),
		TotalSessions:        total,
		UpdatedAt:            time.Now().UTC(),
		SpecSource:           spec.Source,
		SpecConfidence:       spec.Confidence,
	}

	if a.cache != nil {
		if err := a.cache.SaveReport(ctx, report); err != nil {
			a.logger.Warn("failed to cache health report", zap.Error(err))
		}
	}

	return report, nil
}
