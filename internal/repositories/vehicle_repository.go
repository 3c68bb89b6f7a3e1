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

type VehicleRepository struct {
	DB intdb.DBTX
}

const vehicleColumns = `id, plate_number, vehicle_type, model, COALESCE(color,''), capacity, year, is_active`

func scanVehicle(row interface{ Scan(...any) error }) (models.Vehicle, error) {
	var v models.Vehicle
	var vt string
	err := row.Scan(&v.ID, &v.PlateNumber, &vt, &v.Model, &v.Color, &v.Capacity, &v.Year, &v.Active)
	v.Type = models.VehicleType(vt)
	return v, err
}

func (r VehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO vehicles (plate_number, vehicle_type, model, color, capacity, year, is_active)
		VALUES (?,?,?,?,?,?,?)`,
		v.PlateNumber, string(v.Type), v.Model, intdb.NullIfEmpty(v.Color), v.Capacity, v.Year, v.Active)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "vehicle", Msg: "plate number already registered", Err: err}
		}
		return fmt.Errorf("insert vehicle: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

func (r VehicleRepository) GetByID(ctx context.Context, id int64) (models.Vehicle, error) {
	v, err := scanVehicle(r.DB.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return v, domain.NotFoundError{Resource: "vehicle", Err: err}
	}
	return v, err
}

func (r VehicleRepository) List(ctx context.Context, activeOnly bool) ([]models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	if activeOnly {
		query += ` WHERE is_active=1`
	}
	query += ` ORDER BY plate_number`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	out := []models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
