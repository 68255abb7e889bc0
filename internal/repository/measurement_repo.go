package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"battwatch/internal/models"
)

// MeasurementRepository persists sampled battery readings.
type MeasurementRepository struct {
	db *sql.DB
}

// NewMeasurementRepository returns repository.
func NewMeasurementRepository(db *sql.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// InsertBatch stores measurements in one statement. Re-inserting a reading
// for the same session and timestamp replaces it, so retried flushes after a
// persistence failure stay duplicate-safe.
func (r *MeasurementRepository) InsertBatch(ctx context.Context, measurements []models.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString(`
		INSERT INTO battery_measurements (
			session_id, recorded_at, percentage, charge_counter_uah,
			temperature_c, voltage_mv, current_ua
		)
		VALUES `)
	for i, m := range measurements {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args,
			m.SessionID,
			m.RecordedAt,
			m.Percentage,
			m.ChargeCounterUAH,
			m.TemperatureC,
			m.VoltageMV,
			m.CurrentUA,
		)
	}
	sb.WriteString(`
		ON CONFLICT (session_id, recorded_at) DO UPDATE SET
			percentage = EXCLUDED.percentage,
			charge_counter_uah = EXCLUDED.charge_counter_uah,
			temperature_c = EXCLUDED.temperature_c,
			voltage_mv = EXCLUDED.voltage_mv,
			current_ua = EXCLUDED.current_ua`)

	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// GetBySession returns a session's measurements ordered by time ascending.
func (r *MeasurementRepository) GetBySession(ctx context.Context, sessionID int64) ([]models.Measurement, error) {
	const query = `
		SELECT id, session_id, recorded_at, percentage, charge_counter_uah,
		       temperature_c, voltage_mv, current_ua
		FROM battery_measurements
		WHERE session_id = $1
		ORDER BY recorded_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var measurements []models.Measurement
	for rows.Next() {
		var m models.Measurement
		if err := rows.Scan(
			&m.ID,
			&m.SessionID,
			&m.RecordedAt,
			&m.Percentage,
			&m.ChargeCounterUAH,
			&m.TemperatureC,
			&m.VoltageMV,
			&m.CurrentUA,
		); err != nil {
			return nil, err
		}
		measurements = append(measurements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return measurements, nil
}

// DeleteBySession removes a session's measurements.
func (r *MeasurementRepository) DeleteBySession(ctx context.Context, sessionID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM battery_measurements WHERE session_id = $1`, sessionID)
	return err
}

// DeleteAll removes every measurement.
func (r *MeasurementRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM battery_measurements`)
	return err
}
