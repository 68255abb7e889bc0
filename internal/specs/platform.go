package specs

import (
	"context"

	"battwatch/internal/models"
)

// DesignCapacitySource exposes the platform-reported design capacity.
// The sysfs sensor reader satisfies it.
type DesignCapacitySource interface {
	DesignCapacityMAH() *int
}

// PlatformProbe reads the design capacity the kernel reports for the battery.
type PlatformProbe struct {
	source DesignCapacitySource
}

// NewPlatformProbe builds the probe.
func NewPlatformProbe(source DesignCapacitySource) *PlatformProbe {
	return &PlatformProbe{source: source}
}

// Name identifies the probe.
func (p *PlatformProbe) Name() string { return models.SpecSourcePlatform }

// Lookup returns the platform design capacity, or no match when unsupported.
func (p *PlatformProbe) Lookup(ctx context.Context, device models.DeviceInfo) (*models.DeviceSpec, error) {
	if p.source == nil {
		return nil, nil
	}
	mah := p.source.DesignCapacityMAH()
	if mah == nil {
		return nil, nil
	}
	return &models.DeviceSpec{
		DeviceModel: device.Model,
		CapacityMAH: *mah,
		Source:      models.SpecSourcePlatform,
		Confidence:  0.95,
		Verified:    true,
	}, nil
}
