package specs

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"

	"battwatch/internal/models"
)

//go:embed devices.json
var embeddedDevices []byte

type deviceEntry struct {
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer"`
	Name         string `json:"name"`
	CapacityMAH  int    `json:"capacity_mah"`
}

// EmbeddedProbe looks the device up in the bundled reference table.
// Exact model matches are trusted more than substring matches.
type EmbeddedProbe struct {
	entries []deviceEntry
}

// NewEmbeddedProbe parses the bundled table.
func NewEmbeddedProbe() (*EmbeddedProbe, error) {
	var entries []deviceEntry
	if err := json.Unmarshal(embeddedDevices, &entries); err != nil {
		return nil, err
	}
	return &EmbeddedProbe{entries: entries}, nil
}

// Name identifies the probe.
func (p *EmbeddedProbe) Name() string { return models.SpecSourceEmbedded }

// Lookup matches the device model against the reference table.
func (p *EmbeddedProbe) Lookup(ctx context.Context, device models.DeviceInfo) (*models.DeviceSpec, error) {
	model := strings.ToLower(strings.TrimSpace(device.Model))
	if model == "" {
		return nil, nil
	}

	for _, entry := range p.entries {
		if strings.ToLower(entry.Model) == model {
			return p.spec(entry, device, 0.9, true), nil
		}
	}
	for _, entry := range p.entries {
		entryModel := strings.ToLower(entry.Model)
		if strings.Contains(model, entryModel) || strings.Contains(entryModel, model) {
			return p.spec(entry, device, 0.75, false), nil
		}
	}
	return nil, nil
}

func (p *EmbeddedProbe) spec(entry deviceEntry, device models.DeviceInfo, confidence float64, verified bool) *models.DeviceSpec {
	return &models.DeviceSpec{
		DeviceModel:  device.Model,
		Manufacturer: entry.Manufacturer,
		CapacityMAH:  entry.CapacityMAH,
		Source:       models.SpecSourceEmbedded,
		Confidence:   confidence,
		DeviceName:   entry.Name,
		Verified:     verified,
	}
}
