package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intdb "shuttle/internal/db"
	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

type TripRepository struct {
	DB intdb.DBTX
}

const tripColumns = `id, route_id, schedule_id, driver_id, trip_date, status, started_at, completed_at,
	COALESCE(notes,''), created_at`

func scanTrip(row interface{ Scan(...any) error }) (models.Trip, error) {
	var t models.Trip
	var status string
	var started, completed sql.NullTime
	err := row.Scan(&t.ID, &t.RouteID, &t.ScheduleID, &t.DriverID, &t.Date, &status, &started, &completed,
		&t.Notes, &t.CreatedAt)
	t.Status = models.TripStatus(status)
	t.StartedAt = intdb.TimePtr(started)
	t.CompletedAt = intdb.TimePtr(completed)
	return t, err
}

func tripNotFound(t models.Trip, err error) (models.Trip, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "trip", Err: err}
	}
	return t, err
}

// Create inserts a trip. The unique (route_id, schedule_id, trip_date) index
// turns a concurrent duplicate into ConflictError.
func (r TripRepository) Create(ctx context.Context, t *models.Trip) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO trips (route_id, schedule_id, driver_id, trip_date, status, notes, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		t.RouteID, t.ScheduleID, t.DriverID, t.Date, string(t.Status), intdb.NullIfEmpty(t.Notes), t.CreatedAt)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "trip", Msg: "trip already exists for schedule and date", Err: err}
		}
		return fmt.Errorf("insert trip: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (r TripRepository) GetByKey(ctx context.Context, key models.TripKey) (models.Trip, error) {
	return tripNotFound(scanTrip(r.DB.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE route_id=? AND schedule_id=? AND trip_date=? LIMIT 1`,
		key.RouteID, key.ScheduleID, key.Date)))
}

func (r TripRepository) GetByID(ctx context.Context, id int64) (models.Trip, error) {
	return tripNotFound(scanTrip(r.DB.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=? LIMIT 1`, id)))
}

func (r TripRepository) GetForUpdate(ctx context.Context, id int64) (models.Trip, error) {
	return tripNotFound(scanTrip(r.DB.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=? FOR UPDATE`, id)))
}

func (r TripRepository) UpdateStatus(ctx context.Context, t models.Trip, from models.TripStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE trips SET status=?, started_at=?, completed_at=?
		WHERE id=? AND status=?`,
		string(t.Status), t.StartedAt, t.CompletedAt, t.ID, string(from))
	if err != nil {
		return false, fmt.Errorf("update trip status: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// AssignDriver swaps the driver of a trip that has not started yet.
func (r TripRepository) AssignDriver(ctx context.Context, id, driverID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE trips SET driver_id=? WHERE id=? AND status='SCHEDULED'`, driverID, id)
	if err != nil {
		return false, fmt.Errorf("assign trip driver: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r TripRepository) List(ctx context.Context, q TripQuery) ([]models.Trip, error) {
	where := []string{}
	args := []any{}
	if q.DriverID > 0 {
		where = append(where, "driver_id=?")
		args = append(args, q.DriverID)
	}
	if q.Status != "" {
		where = append(where, "status=?")
		args = append(args, string(q.Status))
	}
	if q.FromDate != nil {
		where = append(where, "trip_date>=?")
		args = append(args, *q.FromDate)
	}
	if q.Date != nil {
		where = append(where, "trip_date=?")
		args = append(args, *q.Date)
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY trip_date DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
