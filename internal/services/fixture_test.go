package services

import (
	"testing"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
)

// monday is a Monday; the fixture schedule runs on Mondays at 07:00.
var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.Local)

type fixture struct {
	store    *memStore
	now      time.Time
	vehicle  models.Vehicle
	route    models.Route
	other    models.Route
	stops    []models.Stop
	schedule models.Schedule
	student  models.Student
	driver   models.Driver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := newMemStore()
	f := &fixture{store: m, now: time.Date(2025, 1, 2, 9, 30, 0, 0, time.Local)}

	f.vehicle = m.addVehicle(models.Vehicle{PlateNumber: "NBC 1234", Type: models.VehicleVan, Capacity: 12, Active: true})
	f.route = m.addRoute(models.Route{
		Code: "R-NORTH", Name: "North Loop", Origin: "Main Campus", Destination: "North Terminal",
		Fare: 5000, Type: models.RoutePickup, VehicleID: f.vehicle.ID, Active: true,
	})
	f.other = m.addRoute(models.Route{
		Code: "R-SOUTH", Name: "South Line", Origin: "Main Campus", Destination: "South Gate",
		Fare: 3500, Type: models.RouteDrop, VehicleID: f.vehicle.ID, Active: true,
	})
	for i, name := range []string{"Main Gate", "Library", "North Terminal"} {
		f.stops = append(f.stops, m.addStop(models.Stop{RouteID: f.route.ID, Name: name, Order: i + 1}))
	}
	f.schedule = m.addSchedule(models.Schedule{RouteID: f.route.ID, Day: models.Monday, DepartureTime: "07:00", Active: true})
	f.student = m.addStudent(models.Student{UserID: 100, Code: "2021-0001", Active: true})
	vid := f.vehicle.ID
	f.driver = m.addDriver(models.Driver{UserID: 200, Code: "DRV-01", LicenseNumber: "N01-12-345678", VehicleID: &vid, Active: true, Verified: true})
	return f
}

func (f *fixture) clock() Clock { return func() time.Time { return f.now } }

func (f *fixture) admin() domain.Principal { return domain.AdminPrincipal(1) }

func (f *fixture) asStudent() domain.Principal {
	return domain.StudentPrincipal(domain.ID(f.student.UserID), domain.ID(f.student.ID))
}

func (f *fixture) asDriver() domain.Principal {
	return domain.DriverPrincipal(domain.ID(f.driver.UserID), domain.ID(f.driver.ID))
}

func (f *fixture) bookingInput(seats int) models.CreateBookingInput {
	return models.CreateBookingInput{
		RouteCode:     f.route.Code,
		ScheduleID:    f.schedule.ID,
		PickupStopID:  f.stops[0].ID,
		DropoffStopID: f.stops[2].ID,
		Date:          monday,
		Seats:         seats,
	}
}

// seedTrip adds a trip on the fixture schedule for the given date.
func (f *fixture) seedTrip(status models.TripStatus, date time.Time) models.Trip {
	return f.store.addTrip(models.Trip{
		RouteID: f.route.ID, ScheduleID: f.schedule.ID, DriverID: f.driver.ID,
		Date: date, Status: status, CreatedAt: f.now,
	})
}

func (f *fixture) seedBooking(tripID *int64, status models.BookingStatus) models.Booking {
	return f.store.addBooking(models.Booking{
		StudentID: f.student.ID, RouteID: f.route.ID, ScheduleID: f.schedule.ID, TripID: tripID,
		Date: monday, PickupStopID: f.stops[0].ID, DropoffStopID: f.stops[1].ID,
		Seats: 1, TotalFare: f.route.Fare, Status: status, CreatedAt: f.now,
	})
}

func ptr[T any](v T) *T { return &v }
