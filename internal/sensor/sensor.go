package sensor

import (
	"time"

	"battwatch/internal/models"
)

// Reader abstracts platform battery telemetry. Optional readings return nil
// when the platform does not expose them; an error means the read itself
// failed, not that the value is unsupported.
type Reader interface {
	Percentage() (int, error)
	ChargeCounterUAH() *int64
	TemperatureC() *float64
	VoltageMV() *int
	CurrentUA() *int64
	Charging() (bool, error)
	ChargerType() string
}

// TakeSnapshot composes one immutable reading from the reader.
// Unsupported optional fields stay nil; temperature and voltage default to
// zero when the platform does not report them.
func TakeSnapshot(r Reader, now time.Time) (models.Snapshot, error) {
	pct, err := r.Percentage()
	if err != nil {
		return models.Snapshot{}, err
	}

	snap := models.Snapshot{
		Timestamp:        now,
		Percentage:       pct,
		ChargeCounterUAH: r.ChargeCounterUAH(),
		CurrentUA:        r.CurrentUA(),
	}
	if temp := r.TemperatureC(); temp != nil {
		snap.TemperatureC = *temp
	}
	if mv := r.VoltageMV(); mv != nil {
		snap.VoltageMV = *mv
	}
	return snap, nil
}
