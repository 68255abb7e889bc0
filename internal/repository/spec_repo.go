package repository

import (
	"context"
	"database/sql"
	"errors"

	"battwatch/internal/models"
)

// SpecRepository persists resolved device battery specs keyed by model.
type SpecRepository struct {
	db *sql.DB
}

// NewSpecRepository returns repository.
func NewSpecRepository(db *sql.DB) *SpecRepository {
	return &SpecRepository{db: db}
}

// Upsert inserts or replaces the spec for its device model.
func (r *SpecRepository) Upsert(ctx context.Context, spec *models.DeviceSpec) error {
	const query = `
		INSERT INTO device_specs (
			device_model, manufacturer, capacity_mah, source,
			confidence, device_name, verified, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (device_model) DO UPDATE SET
			manufacturer = EXCLUDED.manufacturer,
			capacity_mah = EXCLUDED.capacity_mah,
			source = EXCLUDED.source,
			confidence = EXCLUDED.confidence,
			device_name = EXCLUDED.device_name,
			verified = EXCLUDED.verified,
			updated_at = NOW()
		RETURNING updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		spec.DeviceModel,
		spec.Manufacturer,
		spec.CapacityMAH,
		spec.Source,
		spec.Confidence,
		spec.DeviceName,
		spec.Verified,
	).Scan(&spec.UpdatedAt)
}

// GetByModel returns the cached spec for the model, or nil when absent.
func (r *SpecRepository) GetByModel(ctx context.Context, deviceModel string) (*models.DeviceSpec, error) {
	const query = `
		SELECT device_model, manufacturer, capacity_mah, source,
		       confidence, device_name, verified, updated_at
		FROM device_specs
		WHERE device_model = $1
	`
	var spec models.DeviceSpec
	err := r.db.QueryRowContext(ctx, query, deviceModel).Scan(
		&spec.DeviceModel,
		&spec.Manufacturer,
		&spec.CapacityMAH,
		&spec.Source,
		&spec.Confidence,
		&spec.DeviceName,
		&spec.Verified,
		&spec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// DeleteByModel removes the cached spec for the model.
func (r *SpecRepository) DeleteByModel(ctx context.Context, deviceModel string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM device_specs WHERE device_model = $1`, deviceModel)
	return err
}

// List returns all cached specs.
func (r *SpecRepository) List(ctx context.Context) ([]models.DeviceSpec, error) {
	const query = `
		SELECT device_model, manufacturer, capacity_mah, source,
		       confidence, device_name, verified, updated_at
		FROM device_specs
		ORDER BY device_model
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var specs []models.DeviceSpec
	for rows.Next() {
		var spec models.DeviceSpec
		if err := rows.Scan(
			&spec.DeviceModel,
			&spec.Manufacturer,
			&spec.CapacityMAH,
			&spec.Source,
			&spec.Confidence,
			&spec.DeviceName,
			&spec.Verified,
			&spec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return specs, nil
}
