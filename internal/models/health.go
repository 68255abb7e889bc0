package models

import "time"

// ConfidenceTier rates how trustworthy a health estimate is.
type ConfidenceTier string

// Ordered confidence tiers.
const (
	ConfidenceVeryLow  ConfidenceTier = "very_low"
	ConfidenceLow      ConfidenceTier = "low"
	ConfidenceMedium   ConfidenceTier = "medium"
	ConfidenceHigh     ConfidenceTier = "high"
	ConfidenceVeryHigh ConfidenceTier = "very_high"
)

// HealthReport is the computed battery health result. Never persisted;
// recomputed on demand from valid sessions and the device spec.
type HealthReport struct {
	HealthPercent        float64        `json:"health_percent"`
	EstimatedCapacityMAH int            `json:"estimated_capacity_mah"`
	DesignCapacityMAH    int            `json:"design_capacity_mah"`
	Confidence           ConfidenceTier `json:"confidence"`
	ValidSessions        int            `json:"valid_sessions"`
	TotalSessions        int            `json:"total_sessions"`
	UpdatedAt            time.Time      `json:"updated_at"`
	SpecSource           string         `json:"spec_source"`
	SpecConfidence       float64        `json:"spec_confidence"`
}
