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

type BookingRepository struct {
	DB intdb.DBTX
}

const bookingColumns = `id, booking_code, student_id, route_id, schedule_id, trip_id, booking_date,
	pickup_stop_id, dropoff_stop_id, seats_booked, total_fare, status, COALESCE(notes,''),
	created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (models.Booking, error) {
	var b models.Booking
	var tripID sql.NullInt64
	var status string
	err := row.Scan(&b.ID, &b.Code, &b.StudentID, &b.RouteID, &b.ScheduleID, &tripID, &b.Date,
		&b.PickupStopID, &b.DropoffStopID, &b.Seats, &b.TotalFare, &status, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt)
	b.TripID = intdb.Int64Ptr(tripID)
	b.Status = models.BookingStatus(status)
	return b, err
}

// Create inserts a booking. A clash on booking_code surfaces as ConflictError
// so callers can retry with a fresh code.
func (r BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO bookings (booking_code, student_id, route_id, schedule_id, trip_id, booking_date,
			pickup_stop_id, dropoff_stop_id, seats_booked, total_fare, status, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.Code, b.StudentID, b.RouteID, b.ScheduleID, intdb.NullInt64(b.TripID), b.Date,
		b.PickupStopID, b.DropoffStopID, b.Seats, b.TotalFare, string(b.Status), intdb.NullIfEmpty(b.Notes),
		b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "booking", Msg: "booking code already used", Err: err}
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

func (r BookingRepository) GetByCode(ctx context.Context, code string) (models.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_code=? LIMIT 1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return b, domain.NotFoundError{Resource: "booking", Err: err}
	}
	return b, err
}

func (r BookingRepository) List(ctx context.Context, q BookingQuery) ([]models.Booking, error) {
	where := []string{}
	args := []any{}
	if q.StudentID > 0 {
		where = append(where, "student_id=?")
		args = append(args, q.StudentID)
	}
	if q.TripID > 0 {
		where = append(where, "trip_id=?")
		args = append(args, q.TripID)
	}
	if q.Status != "" {
		where = append(where, "status=?")
		args = append(args, string(q.Status))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY booking_date DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r BookingRepository) UpdateStatus(ctx context.Context, id int64, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	marks := make([]string, len(from))
	args := []any{string(to), id}
	for i, s := range from {
		marks[i] = "?"
		args = append(args, string(s))
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET status=?, updated_at=NOW() WHERE id=? AND status IN (`+strings.Join(marks, ",")+`)`,
		args...)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r BookingRepository) CascadeTripStatus(ctx context.Context, tripID int64, from, to models.BookingStatus) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET status=?, updated_at=NOW() WHERE trip_id=? AND status=?`,
		string(to), tripID, string(from))
	if err != nil {
		return 0, fmt.Errorf("cascade booking status: %w", err)
	}
	return res.RowsAffected()
}

// AttachTrip links live bookings for the same schedule occurrence that were
// made before the trip existed.
func (r BookingRepository) AttachTrip(ctx context.Context, tripID int64, key models.TripKey) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE bookings SET trip_id=?, updated_at=NOW()
		WHERE trip_id IS NULL AND route_id=? AND schedule_id=? AND booking_date=? AND status IN ('PENDING','CONFIRMED')`,
		tripID, key.RouteID, key.ScheduleID, key.Date)
	if err != nil {
		return 0, fmt.Errorf("attach bookings to trip: %w", err)
	}
	return res.RowsAffected()
}
