package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "shuttle/internal/db"
	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

// LocationRepository is append-only; samples are never updated.
type LocationRepository struct {
	DB intdb.DBTX
}

func (r LocationRepository) Append(ctx context.Context, l *models.VehicleLocation) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO vehicle_locations (vehicle_id, latitude, longitude, speed, heading, recorded_at)
		VALUES (?,?,?,?,?,?)`,
		l.VehicleID, l.Latitude, l.Longitude, l.Speed, l.Heading, l.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert vehicle location: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}

// Latest returns the newest sample by recorded_at; id breaks ties.
func (r LocationRepository) Latest(ctx context.Context, vehicleID int64) (models.VehicleLocation, error) {
	var l models.VehicleLocation
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, vehicle_id, latitude, longitude, speed, heading, recorded_at
		FROM vehicle_locations WHERE vehicle_id=?
		ORDER BY recorded_at DESC, id DESC LIMIT 1`, vehicleID).
		Scan(&l.ID, &l.VehicleID, &l.Latitude, &l.Longitude, &l.Speed, &l.Heading, &l.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return l, domain.NotFoundError{Resource: "vehicle location", Err: err}
	}
	return l, err
}
