package repositories

import (
	"context"
	"time"

	"shuttle/internal/domain/models"
)

// Store groups the repositories behind one persistence handle. InTx runs fn
// against a Store bound to a single transaction; an error from fn rolls
// everything back.
type Store interface {
	Routes() RouteRepo
	Accounts() AccountRepo
	Vehicles() VehicleRepo
	Bookings() BookingRepo
	Payments() PaymentRepo
	Trips() TripRepo
	Locations() LocationRepo
	Reports() ReportRepo
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type RouteRepo interface {
	ListActive(ctx context.Context, f models.RouteFilter) ([]models.Route, error)
	// List returns every route, inactive ones included.
	List(ctx context.Context) ([]models.Route, error)
	GetByCode(ctx context.Context, code string) (models.Route, error)
	GetByID(ctx context.Context, id int64) (models.Route, error)
	Create(ctx context.Context, r *models.Route) error
	ListStops(ctx context.Context, routeID int64) ([]models.Stop, error)
	GetStop(ctx context.Context, id int64) (models.Stop, error)
	CreateStop(ctx context.Context, s *models.Stop) error
	ListSchedules(ctx context.Context, routeID int64, activeOnly bool) ([]models.Schedule, error)
	GetSchedule(ctx context.Context, id int64) (models.Schedule, error)
	CreateSchedule(ctx context.Context, s *models.Schedule) error
}

type AccountRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByLogin(ctx context.Context, login string) (models.User, error)
	Identity(ctx context.Context, userID int64) (models.Identity, error)
	CreateStudent(ctx context.Context, s *models.Student) error
	GetStudent(ctx context.Context, id int64) (models.Student, error)
	CreateDriver(ctx context.Context, d *models.Driver) error
	GetDriver(ctx context.Context, id int64) (models.Driver, error)
	UpdateDriver(ctx context.Context, d models.Driver) error
	ListDrivers(ctx context.Context) ([]models.DriverAccount, error)
	ListStudents(ctx context.Context) ([]models.StudentAccount, error)
}

type VehicleRepo interface {
	Create(ctx context.Context, v *models.Vehicle) error
	GetByID(ctx context.Context, id int64) (models.Vehicle, error)
	List(ctx context.Context, activeOnly bool) ([]models.Vehicle, error)
}

// BookingQuery filters List. Zero values match everything.
type BookingQuery struct {
	StudentID int64
	TripID    int64
	Status    models.BookingStatus
}

type BookingRepo interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByCode(ctx context.Context, code string) (models.Booking, error)
	List(ctx context.Context, q BookingQuery) ([]models.Booking, error)
	// UpdateStatus moves one booking to `to` only while it is in one of `from`.
	UpdateStatus(ctx context.Context, id int64, from []models.BookingStatus, to models.BookingStatus) (bool, error)
	// CascadeTripStatus moves every booking of a trip from one status to another.
	CascadeTripStatus(ctx context.Context, tripID int64, from, to models.BookingStatus) (int64, error)
	// AttachTrip links unlinked bookings of the trip's schedule occurrence.
	AttachTrip(ctx context.Context, tripID int64, key models.TripKey) (int64, error)
}

type PaymentRepo interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByBookingID(ctx context.Context, bookingID int64) (models.Payment, error)
	SetStatus(ctx context.Context, id int64, from, to models.PaymentStatus) (bool, error)
	Settle(ctx context.Context, id int64, method models.PaymentMethod, reference string, paidAt time.Time) (bool, error)
}

// TripQuery filters ListTrips. Zero values match everything.
type TripQuery struct {
	DriverID int64
	Status   models.TripStatus
	FromDate *time.Time
	Date     *time.Time
}

type TripRepo interface {
	Create(ctx context.Context, t *models.Trip) error
	GetByKey(ctx context.Context, key models.TripKey) (models.Trip, error)
	GetByID(ctx context.Context, id int64) (models.Trip, error)
	// GetForUpdate reads and row-locks a trip inside a transaction.
	GetForUpdate(ctx context.Context, id int64) (models.Trip, error)
	// UpdateStatus persists t's status and timestamps only while the stored status is `from`.
	UpdateStatus(ctx context.Context, t models.Trip, from models.TripStatus) (bool, error)
	AssignDriver(ctx context.Context, id, driverID int64) (bool, error)
	List(ctx context.Context, q TripQuery) ([]models.Trip, error)
}

type LocationRepo interface {
	Append(ctx context.Context, l *models.VehicleLocation) error
	Latest(ctx context.Context, vehicleID int64) (models.VehicleLocation, error)
}

type ReportRepo interface {
	BookingCountsByStatus(ctx context.Context) ([]models.StatusCount, error)
	Revenue(ctx context.Context) (int64, error)
	MonthlyRevenue(ctx context.Context, months int) ([]models.MonthlyTotal, error)
	DriverEarnings(ctx context.Context, driverID int64) (models.DriverEarnings, error)
	DashboardCounts(ctx context.Context, today time.Time) (models.DashboardCounts, error)
}
