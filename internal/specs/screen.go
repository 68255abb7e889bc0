package specs

import (
	"context"

	"battwatch/internal/models"
)

// ScreenEstimateProbe is the last resort: a rough capacity guess from the
// screen diagonal. It never fails, so the resolver chain always terminates
// with some spec, at very low confidence.
type ScreenEstimateProbe struct{}

// NewScreenEstimateProbe builds the probe.
func NewScreenEstimateProbe() *ScreenEstimateProbe {
	return &ScreenEstimateProbe{}
}

// Name identifies the probe.
func (p *ScreenEstimateProbe) Name() string { return models.SpecSourceScreen }

// Lookup guesses capacity from the screen size.
func (p *ScreenEstimateProbe) Lookup(ctx context.Context, device models.DeviceInfo) (*models.DeviceSpec, error) {
	return &models.DeviceSpec{
		DeviceModel: device.Model,
		CapacityMAH: estimateFromScreen(device.ScreenInches),
		Source:      models.SpecSourceScreen,
		Confidence:  0.2,
	}, nil
}

func estimateFromScreen(inches float64) int {
	switch {
	case inches <= 0:
		return 4000
	case inches < 5.0:
		return 2500
	case inches < 5.5:
		return 3000
	case inches < 6.0:
		return 3500
	case inches < 6.5:
		return 4000
	case inches < 7.0:
		return 4800
	default:
		return 7500
	}
}
