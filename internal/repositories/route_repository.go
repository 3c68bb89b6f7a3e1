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

// RouteRepository covers routes, their stops and recurring schedules.
type RouteRepository struct {
	DB intdb.DBTX
}

const routeColumns = `id, route_code, route_name, origin, destination, distance_km, fare,
	COALESCE(estimated_duration,''), route_type, vehicle_id, is_active`

func scanRoute(row interface{ Scan(...any) error }) (models.Route, error) {
	var r models.Route
	var routeType string
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.Origin, &r.Destination, &r.DistanceKM, &r.Fare,
		&r.EstimatedDuration, &routeType, &r.VehicleID, &r.Active)
	r.Type = models.RouteType(routeType)
	return r, err
}

func (r RouteRepository) ListActive(ctx context.Context, f models.RouteFilter) ([]models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE is_active=1`
	args := []any{}
	if f.Type != "" {
		query += ` AND route_type=?`
		args = append(args, string(f.Type))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query += ` AND (LOWER(route_name) LIKE ? OR LOWER(origin) LIKE ? OR LOWER(destination) LIKE ?)`
		args = append(args, like, like, like)
	}
	query += ` ORDER BY route_code`
	return r.queryRoutes(ctx, query, args...)
}

func (r RouteRepository) List(ctx context.Context) ([]models.Route, error) {
	return r.queryRoutes(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY route_code`)
}

func (r RouteRepository) queryRoutes(ctx context.Context, query string, args ...any) ([]models.Route, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	out := []models.Route{}
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r RouteRepository) GetByCode(ctx context.Context, code string) (models.Route, error) {
	rt, err := scanRoute(r.DB.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE route_code=? LIMIT 1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return rt, domain.NotFoundError{Resource: "route", Err: err}
	}
	return rt, err
}

func (r RouteRepository) GetByID(ctx context.Context, id int64) (models.Route, error) {
	rt, err := scanRoute(r.DB.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return rt, domain.NotFoundError{Resource: "route", Err: err}
	}
	return rt, err
}

func (r RouteRepository) Create(ctx context.Context, rt *models.Route) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO routes (route_code, route_name, origin, destination, distance_km, fare,
			estimated_duration, route_type, vehicle_id, is_active)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rt.Code, rt.Name, rt.Origin, rt.Destination, rt.DistanceKM, rt.Fare,
		intdb.NullIfEmpty(rt.EstimatedDuration), string(rt.Type), rt.VehicleID, rt.Active)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "route", Msg: "route code already exists", Err: err}
		}
		return fmt.Errorf("insert route: %w", err)
	}
	rt.ID, err = res.LastInsertId()
	return err
}

func (r RouteRepository) ListStops(ctx context.Context, routeID int64) ([]models.Stop, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, route_id, stop_name, stop_order, COALESCE(estimated_arrival_time,'')
		FROM stops WHERE route_id=? ORDER BY stop_order`, routeID)
	if err != nil {
		return nil, fmt.Errorf("list stops: %w", err)
	}
	defer rows.Close()

	out := []models.Stop{}
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.ID, &s.RouteID, &s.Name, &s.Order, &s.EstimatedArrival); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r RouteRepository) GetStop(ctx context.Context, id int64) (models.Stop, error) {
	var s models.Stop
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, route_id, stop_name, stop_order, COALESCE(estimated_arrival_time,'')
		FROM stops WHERE id=? LIMIT 1`, id).
		Scan(&s.ID, &s.RouteID, &s.Name, &s.Order, &s.EstimatedArrival)
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.NotFoundError{Resource: "stop", Err: err}
	}
	return s, err
}

func (r RouteRepository) CreateStop(ctx context.Context, s *models.Stop) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO stops (route_id, stop_name, stop_order, estimated_arrival_time)
		VALUES (?,?,?,?)`,
		s.RouteID, s.Name, s.Order, intdb.NullIfEmpty(s.EstimatedArrival))
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "stop", Msg: fmt.Sprintf("stop order %d already used on route", s.Order), Err: err}
		}
		return fmt.Errorf("insert stop: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return err
}

const scheduleColumns = `id, route_id, day_of_week, departure_time, COALESCE(arrival_time,''), is_active`

func scanSchedule(row interface{ Scan(...any) error }) (models.Schedule, error) {
	var s models.Schedule
	var day string
	err := row.Scan(&s.ID, &s.RouteID, &day, &s.DepartureTime, &s.ArrivalTime, &s.Active)
	s.Day = models.DayOfWeek(day)
	return s, err
}

// ListSchedules orders Monday first, then by departure time.
func (r RouteRepository) ListSchedules(ctx context.Context, routeID int64, activeOnly bool) ([]models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE route_id=?`
	if activeOnly {
		query += ` AND is_active=1`
	}
	query += ` ORDER BY FIELD(day_of_week,'MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY','SUNDAY'), departure_time`

	rows, err := r.DB.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	out := []models.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r RouteRepository) GetSchedule(ctx context.Context, id int64) (models.Schedule, error) {
	s, err := scanSchedule(r.DB.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.NotFoundError{Resource: "schedule", Err: err}
	}
	return s, err
}

func (r RouteRepository) CreateSchedule(ctx context.Context, s *models.Schedule) error {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO schedules (route_id, day_of_week, departure_time, arrival_time, is_active)
		VALUES (?,?,?,?,?)`,
		s.RouteID, string(s.Day), s.DepartureTime, intdb.NullIfEmpty(s.ArrivalTime), s.Active)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ConflictError{Resource: "schedule", Msg: "route already departs at that day and time", Err: err}
		}
		return fmt.Errorf("insert schedule: %w", err)
	}
	s.ID, err = res.LastInsertId()
	return err
}
