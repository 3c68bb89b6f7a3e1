package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intdb "shuttle/internal/db"
	"shuttle/internal/domain/models"
)

// ReportRepository runs the aggregate queries behind the dashboards.
type ReportRepository struct {
	DB intdb.DBTX
}

func (r ReportRepository) BookingCountsByStatus(ctx context.Context) ([]models.StatusCount, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}
	defer rows.Close()

	out := []models.StatusCount{}
	for rows.Next() {
		var sc models.StatusCount
		var status string
		if err := rows.Scan(&status, &sc.Count); err != nil {
			return nil, err
		}
		sc.Status = models.BookingStatus(status)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Revenue sums fares of completed bookings.
func (r ReportRepository) Revenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_fare),0) FROM bookings WHERE status='COMPLETED'`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

// MonthlyRevenue returns completed fares grouped by booking month, oldest first.
func (r ReportRepository) MonthlyRevenue(ctx context.Context, months int) ([]models.MonthlyTotal, error) {
	if months <= 0 {
		months = 12
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DATE_FORMAT(booking_date,'%Y-%m') AS ym, COALESCE(SUM(total_fare),0)
		FROM bookings
		WHERE status='COMPLETED' AND booking_date >= DATE_SUB(CURDATE(), INTERVAL ? MONTH)
		GROUP BY ym ORDER BY ym`, months)
	if err != nil {
		return nil, fmt.Errorf("monthly revenue: %w", err)
	}
	return scanMonthly(rows)
}

// scanMonthly reads (YYYY-MM, total) rows and closes them.
func scanMonthly(rows *sql.Rows) ([]models.MonthlyTotal, error) {
	defer rows.Close()

	out := []models.MonthlyTotal{}
	for rows.Next() {
		var ym string
		var mt models.MonthlyTotal
		if err := rows.Scan(&ym, &mt.Total); err != nil {
			return nil, err
		}
		month, err := time.Parse("2006-01", ym)
		if err != nil {
			return nil, fmt.Errorf("parse month %q: %w", ym, err)
		}
		mt.Month = month
		out = append(out, mt)
	}
	return out, rows.Err()
}

func (r ReportRepository) DriverEarnings(ctx context.Context, driverID int64) (models.DriverEarnings, error) {
	e := models.DriverEarnings{DriverID: driverID}
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM trips WHERE driver_id=? AND status='COMPLETED'`, driverID).Scan(&e.CompletedTrips)
	if err != nil {
		return e, fmt.Errorf("count driver trips: %w", err)
	}
	err = r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(b.total_fare),0)
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE t.driver_id=? AND t.status='COMPLETED' AND b.status='COMPLETED'`, driverID).Scan(&e.TotalEarnings)
	if err != nil {
		return e, fmt.Errorf("sum driver earnings: %w", err)
	}

	// newest month first, keyed by when the booking was made
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DATE_FORMAT(b.created_at,'%Y-%m') AS ym, COALESCE(SUM(b.total_fare),0)
		FROM bookings b JOIN trips t ON t.id = b.trip_id
		WHERE t.driver_id=? AND t.status='COMPLETED' AND b.status='COMPLETED'
		GROUP BY ym ORDER BY ym DESC`, driverID)
	if err != nil {
		return e, fmt.Errorf("monthly driver earnings: %w", err)
	}
	if e.MonthlyEarnings, err = scanMonthly(rows); err != nil {
		return e, err
	}
	return e, nil
}

// DashboardCounts counts active accounts and routes plus every trip dated today.
func (r ReportRepository) DashboardCounts(ctx context.Context, today time.Time) (models.DashboardCounts, error) {
	var c models.DashboardCounts
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students WHERE is_active=1),
			(SELECT COUNT(*) FROM drivers WHERE is_active=1),
			(SELECT COUNT(*) FROM routes WHERE is_active=1),
			(SELECT COUNT(*) FROM trips WHERE trip_date=?)`, today).
		Scan(&c.ActiveStudents, &c.ActiveDrivers, &c.ActiveRoutes, &c.TodayTrips)
	if err != nil {
		return c, fmt.Errorf("dashboard counts: %w", err)
	}
	return c, nil
}
