package models

import "time"

// Spec source tags, most to least authoritative.
const (
	SpecSourceCache    = "cache"
	SpecSourcePlatform = "platform"
	SpecSourceEmbedded = "embedded"
	SpecSourceAPI      = "api"
	SpecSourceCrowd    = "crowd"
	SpecSourceScreen   = "screen_estimate"
)

// DeviceSpec is the cached resolution of a device's nominal design capacity.
type DeviceSpec struct {
	DeviceModel  string    `db:"device_model" json:"device_model"`
	Manufacturer string    `db:"manufacturer" json:"manufacturer"`
	CapacityMAH  int       `db:"capacity_mah" json:"capacity_mah"`
	Source       string    `db:"source" json:"source"`
	Confidence   float64   `db:"confidence" json:"confidence"`
	DeviceName   string    `db:"device_name" json:"device_name"`
	Verified     bool      `db:"verified" json:"verified"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DeviceInfo identifies the device the daemon runs on, as fed to spec probes.
type DeviceInfo struct {
	Model        string  `json:"model"`
	Manufacturer string  `json:"manufacturer"`
	ScreenInches float64 `json:"screen_inches"`
}
