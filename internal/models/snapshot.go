package models

import (
	"math"
	"time"
)

// Snapshot is an immutable point-in-time battery reading.
// Fields reported by the platform in micro-units keep their unit in the name.
type Snapshot struct {
	Timestamp        time.Time `json:"timestamp"`
	Percentage       int       `json:"percentage"`
	ChargeCounterUAH *int64    `json:"charge_counter_uah,omitempty"`
	TemperatureC     float64   `json:"temperature_c"`
	VoltageMV        int       `json:"voltage_mv"`
	CurrentUA        *int64    `json:"current_ua,omitempty"`
}

// SecondsBetween returns the absolute time distance to other in seconds.
func (s Snapshot) SecondsBetween(other Snapshot) float64 {
	return math.Abs(s.Timestamp.Sub(other.Timestamp).Seconds())
}

// PercentDelta returns the absolute percentage difference to other.
func (s Snapshot) PercentDelta(other Snapshot) int {
	delta := s.Percentage - other.Percentage
	if delta < 0 {
		delta = -delta
	}
	return delta
}

// ChargeDeltaMAH returns the absolute charge-counter difference converted to mAh,
// or nil when either snapshot lacks a counter reading.
func (s Snapshot) ChargeDeltaMAH(other Snapshot) *float64 {
	if s.ChargeCounterUAH == nil || other.ChargeCounterUAH == nil {
		return nil
	}
	delta := math.Abs(float64(*s.ChargeCounterUAH-*other.ChargeCounterUAH)) / 1000.0
	return &delta
}
