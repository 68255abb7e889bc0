package models

import "time"

// Charger type tags. Discharge marks sessions derived from discharge observations.
const (
	ChargerAC        = "ac"
	ChargerUSB       = "usb"
	ChargerWireless  = "wireless"
	ChargerUnknown   = "unknown"
	ChargerDischarge = "discharge"
)

// Session represents one bounded charge or discharge observation window.
// End fields stay nil while the session is open; EstimatedCapacityMAH is set
// only when finalization could compute one.
type Session struct {
	ID                   int64      `db:"id" json:"id"`
	StartTime            time.Time  `db:"start_time" json:"start_time"`
	EndTime              *time.Time `db:"end_time" json:"end_time,omitempty"`
	StartPercent         int        `db:"start_percent" json:"start_percent"`
	EndPercent           *int       `db:"end_percent" json:"end_percent,omitempty"`
	StartChargeUAH       *int64     `db:"start_charge_uah" json:"start_charge_uah,omitempty"`
	EndChargeUAH         *int64     `db:"end_charge_uah" json:"end_charge_uah,omitempty"`
	AvgTemperatureC      float64    `db:"avg_temperature_c" json:"avg_temperature_c"`
	MaxTemperatureC      float64    `db:"max_temperature_c" json:"max_temperature_c"`
	AvgVoltageMV         int        `db:"avg_voltage_mv" json:"avg_voltage_mv"`
	EstimatedCapacityMAH *int       `db:"estimated_capacity_mah" json:"estimated_capacity_mah,omitempty"`
	Valid                bool       `db:"valid" json:"valid"`
	InvalidReason        string     `db:"invalid_reason" json:"invalid_reason,omitempty"`
	ChargerType          string     `db:"charger_type" json:"charger_type"`
	ChargingSpeed        string     `db:"charging_speed" json:"charging_speed,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the session has not been finalized yet.
func (s *Session) Open() bool {
	return s.EndTime == nil
}

// Measurement is one sampled snapshot tied to a session. Never mutated after insert.
type Measurement struct {
	ID               int64     `db:"id" json:"id"`
	SessionID        int64     `db:"session_id" json:"session_id"`
	RecordedAt       time.Time `db:"recorded_at" json:"recorded_at"`
	Percentage       int       `db:"percentage" json:"percentage"`
	ChargeCounterUAH *int64    `db:"charge_counter_uah" json:"charge_counter_uah,omitempty"`
	TemperatureC     float64   `db:"temperature_c" json:"temperature_c"`
	VoltageMV        int       `db:"voltage_mv" json:"voltage_mv"`
	CurrentUA        *int64    `db:"current_ua" json:"current_ua,omitempty"`
}

// MeasurementFromSnapshot builds a measurement record for the given session.
func MeasurementFromSnapshot(sessionID int64, snap Snapshot) Measurement {
	return Measurement{
		SessionID:        sessionID,
		RecordedAt:       snap.Timestamp,
		Percentage:       snap.Percentage,
		ChargeCounterUAH: snap.ChargeCounterUAH,
		TemperatureC:     snap.TemperatureC,
		VoltageMV:        snap.VoltageMV,
		CurrentUA:        snap.CurrentUA,
	}
}
