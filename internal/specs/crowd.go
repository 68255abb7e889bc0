package specs

import (
	"context"

	"battwatch/internal/models"
)

// CrowdSource exposes the crowd-sourced capacity aggregate.
type CrowdSource interface {
	CrowdAverage(ctx context.Context, deviceModel string) (avgMAH int, contributors int, err error)
}

// CrowdProbe uses capacities contributed by other devices of the same model.
// Gated on a minimum contributor count so a handful of noisy estimates cannot
// define a device's capacity.
type CrowdProbe struct {
	source          CrowdSource
	minContributors int
}

// NewCrowdProbe builds the probe.
func NewCrowdProbe(source CrowdSource, minContributors int) *CrowdProbe {
	if minContributors <= 0 {
		minContributors = 10
	}
	return &CrowdProbe{source: source, minContributors: minContributors}
}

// Name identifies the probe.
func (p *CrowdProbe) Name() string { return models.SpecSourceCrowd }

// Lookup returns the aggregate when enough contributors exist.
func (p *CrowdProbe) Lookup(ctx context.Context, device models.DeviceInfo) (*models.DeviceSpec, error) {
	if p.source == nil {
		return nil, nil
	}
	avg, contributors, err := p.source.CrowdAverage(ctx, device.Model)
	if err != nil {
		return nil, err
	}
	if contributors < p.minContributors || avg <= 0 {
		return nil, nil
	}
	return &models.DeviceSpec{
		DeviceModel: device.Model,
		CapacityMAH: avg,
		Source:      models.SpecSourceCrowd,
		Confidence:  0.6,
	}, nil
}
