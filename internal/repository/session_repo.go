package repository

import (
	"context"
	"database/sql"
	"errors"

	"battwatch/internal/models"
)

// ErrSessionNotFound indicates a missing session id.
var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `
	id, start_time, end_time, start_percent, end_percent,
	start_charge_uah, end_charge_uah, avg_temperature_c, max_temperature_c,
	avg_voltage_mv, estimated_capacity_mah, valid, invalid_reason,
	charger_type, charging_speed, created_at, updated_at
`

// SessionRepository handles persistence of observation sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert creates a new session and fills the generated fields.
func (r *SessionRepository) Insert(ctx context.Context, session *models.Session) (*models.Session, error) {
	const query = `
		INSERT INTO battery_sessions (
			start_time, end_time, start_percent, end_percent,
			start_charge_uah, end_charge_uah, avg_temperature_c, max_temperature_c,
			avg_voltage_mv, estimated_capacity_mah, valid, invalid_reason,
			charger_type, charging_speed, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		session.StartTime,
		session.EndTime,
		session.StartPercent,
		session.EndPercent,
		session.StartChargeUAH,
		session.EndChargeUAH,
		session.AvgTemperatureC,
		session.MaxTemperatureC,
		session.AvgVoltageMV,
		session.EstimatedCapacityMAH,
		session.Valid,
		session.InvalidReason,
		session.ChargerType,
		session.ChargingSpeed,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Update replaces all mutable fields of the session by id.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	const query = `
		UPDATE battery_sessions
		SET start_time = $2,
		    end_time = $3,
		    start_percent = $4,
		    end_percent = $5,
		    start_charge_uah = $6,
		    end_charge_uah = $7,
		    avg_temperature_c = $8,
		    max_temperature_c = $9,
		    avg_voltage_mv = $10,
		    estimated_capacity_mah = $11,
		    valid = $12,
		    invalid_reason = $13,
		    charger_type = $14,
		    charging_speed = $15,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.StartTime,
		session.EndTime,
		session.StartPercent,
		session.EndPercent,
		session.StartChargeUAH,
		session.EndChargeUAH,
		session.AvgTemperatureC,
		session.MaxTemperatureC,
		session.AvgVoltageMV,
		session.EstimatedCapacityMAH,
		session.Valid,
		session.InvalidReason,
		session.ChargerType,
		session.ChargingSpeed,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetByID returns one session.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM battery_sessions WHERE id = $1`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetAll returns sessions ordered by start time descending.
func (r *SessionRepository) GetAll(ctx context.Context, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT ` + sessionColumns + `
		FROM battery_sessions
		ORDER BY start_time DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// GetValidSessions returns finalized sessions usable for health computation.
func (r *SessionRepository) GetValidSessions(ctx context.Context) ([]models.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM battery_sessions
		WHERE valid = TRUE AND estimated_capacity_mah IS NOT NULL
		ORDER BY start_time DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// GetOpenSession returns the single session without an end timestamp, or nil.
func (r *SessionRepository) GetOpenSession(ctx context.Context) (*models.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM battery_sessions
		WHERE end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1
	`
	session, err := scanSession(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CountSessions returns the number of sessions, valid or not.
func (r *SessionRepository) CountSessions(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM battery_sessions`).Scan(&count)
	return count, err
}

// CountValidSessions returns the number of sessions usable for health computation.
func (r *SessionRepository) CountValidSessions(ctx context.Context) (int, error) {
	const query = `
		SELECT COUNT(*) FROM battery_sessions
		WHERE valid = TRUE AND estimated_capacity_mah IS NOT NULL
	`
	var count int
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// DeleteAll removes every session. Measurements cascade.
func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM battery_sessions`)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	err := row.Scan(
		&s.ID,
		&s.StartTime,
		&s.EndTime,
		&s.StartPercent,
		&s.EndPercent,
		&s.StartChargeUAH,
		&s.EndChargeUAH,
		&s.AvgTemperatureC,
		&s.MaxTemperatureC,
		&s.AvgVoltageMV,
		&s.EstimatedCapacityMAH,
		&s.Valid,
		&s.InvalidReason,
		&s.ChargerType,
		&s.ChargingSpeed,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSessions(rows *sql.Rows) ([]models.Session, error) {
	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
