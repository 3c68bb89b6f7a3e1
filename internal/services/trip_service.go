package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/metrics"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"
)

// TripService materializes schedule occurrences and drives the trip state machine.
type TripService struct {
	Store     repositories.Store
	Clock     Clock
	Metrics   *metrics.Collector
	RequestID string
}

// EnsureTrip returns the trip for (route, schedule, date), creating it with the
// given driver when missing. created reports whether a new row was written.
func (s TripService) EnsureTrip(ctx context.Context, p domain.Principal, routeID, scheduleID int64, date time.Time, driverID int64) (trip models.Trip, created bool, err error) {
	if err := requireAdmin(p); err != nil {
		return models.Trip{}, false, err
	}
	if date.IsZero() {
		return models.Trip{}, false, domain.ValidationError{Field: "trip_date", Msg: "required"}
	}
	date = utils.DateOnly(date)

	route, err := s.Store.Routes().GetByID(ctx, routeID)
	if err != nil {
		return models.Trip{}, false, err
	}
	if !route.Active {
		return models.Trip{}, false, domain.NotFoundError{Resource: "route"}
	}
	schedule, err := s.Store.Routes().GetSchedule(ctx, scheduleID)
	if err != nil {
		return models.Trip{}, false, err
	}
	if !schedule.Active || schedule.RouteID != route.ID {
		return models.Trip{}, false, domain.NotFoundError{Resource: "schedule"}
	}
	if day := models.DayOf(date); day != schedule.Day {
		return models.Trip{}, false, domain.ValidationError{
			Field: "trip_date",
			Msg:   fmt.Sprintf("%s falls on %s but schedule runs on %s", utils.FormatDate(date), day, schedule.Day),
		}
	}

	key := models.TripKey{RouteID: route.ID, ScheduleID: schedule.ID, Date: date}
	existing, err := s.Store.Trips().GetByKey(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !domain.IsNotFound(err) {
		return models.Trip{}, false, err
	}

	if err := s.checkDriver(ctx, driverID); err != nil {
		return models.Trip{}, false, err
	}

	trip = models.Trip{
		RouteID:    route.ID,
		ScheduleID: schedule.ID,
		DriverID:   driverID,
		Date:       date,
		Status:     models.TripScheduled,
		CreatedAt:  s.Clock.now(),
	}
	var attached int64
	err = s.Store.InTx(ctx, func(tx repositories.Store) error {
		if err := tx.Trips().Create(ctx, &trip); err != nil {
			return err
		}
		n, err := tx.Bookings().AttachTrip(ctx, trip.ID, key)
		attached = n
		return err
	})
	if domain.IsConflict(err) {
		// Lost the insert race; the winner's trip is the answer.
		existing, rerr := s.Store.Trips().GetByKey(ctx, key)
		if rerr != nil {
			return models.Trip{}, false, rerr
		}
		return existing, false, nil
	}
	if err != nil {
		return models.Trip{}, false, err
	}

	utils.LogEvent(s.RequestID, "trip", "ensure", fmt.Sprintf("trip_id=%d route=%s date=%s attached=%d",
		trip.ID, route.Code, utils.FormatDate(date), attached))
	return trip, true, nil
}

func (s TripService) checkDriver(ctx context.Context, driverID int64) error {
	driver, err := s.Store.Accounts().GetDriver(ctx, driverID)
	if err != nil {
		return err
	}
	if !driver.Active || !driver.Verified {
		return domain.ValidationError{Field: "driver_id", Msg: "driver is not active and verified"}
	}
	return nil
}

func (s TripService) StartTrip(ctx context.Context, p domain.Principal, tripID int64) (models.Trip, error) {
	driverID, err := requireDriver(p)
	if err != nil {
		return models.Trip{}, err
	}
	return s.apply(ctx, TripStart, tripID, ownTrip(driverID))
}

func (s TripService) CompleteTrip(ctx context.Context, p domain.Principal, tripID int64) (models.Trip, error) {
	driverID, err := requireDriver(p)
	if err != nil {
		return models.Trip{}, err
	}
	return s.apply(ctx, TripComplete, tripID, ownTrip(driverID))
}

func (s TripService) CancelTrip(ctx context.Context, p domain.Principal, tripID int64) (models.Trip, error) {
	if err := requireAdmin(p); err != nil {
		return models.Trip{}, err
	}
	return s.apply(ctx, TripCancel, tripID, nil)
}

func ownTrip(driverID int64) func(models.Trip) error {
	return func(t models.Trip) error {
		if t.DriverID != driverID {
			return domain.UnauthorizedError{Msg: "trip is assigned to another driver"}
		}
		return nil
	}
}

func (s TripService) apply(ctx context.Context, tr Transition, tripID int64, authorize func(models.Trip) error) (models.Trip, error) {
	var (
		trip models.Trip
		n    int64
	)
	err := s.Store.InTx(ctx, func(tx repositories.Store) error {
		var err error
		trip, n, err = tr.Apply(ctx, tx, tripID, s.Clock.now(), authorize)
		return err
	})
	if err != nil {
		return models.Trip{}, err
	}

	to := ""
	if tr.Cascade != nil {
		to = string(tr.Cascade.To)
	}
	s.Metrics.TripTransition(tr.Name, n, to)
	utils.LogEvent(s.RequestID, "trip", tr.Name, fmt.Sprintf("trip_id=%d status=%s cascaded=%d", trip.ID, trip.Status, n))
	return trip, nil
}

// AssignDriver swaps the driver of a trip that has not started.
func (s TripService) AssignDriver(ctx context.Context, p domain.Principal, tripID, driverID int64) (models.Trip, error) {
	if err := requireAdmin(p); err != nil {
		return models.Trip{}, err
	}
	trip, err := s.Store.Trips().GetByID(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	if trip.Status != models.TripScheduled {
		return models.Trip{}, domain.InvalidTransitionError{Entity: "trip", From: string(trip.Status), Action: "reassign"}
	}
	if err := s.checkDriver(ctx, driverID); err != nil {
		return models.Trip{}, err
	}
	ok, err := s.Store.Trips().AssignDriver(ctx, tripID, driverID)
	if err != nil {
		return models.Trip{}, err
	}
	if !ok {
		return models.Trip{}, domain.InvalidTransitionError{Entity: "trip", Action: "reassign"}
	}
	trip.DriverID = driverID
	utils.LogEvent(s.RequestID, "trip", "assign_driver", fmt.Sprintf("trip_id=%d driver_id=%d", tripID, driverID))
	return trip, nil
}

// DriverTrips lists the calling driver's trips, newest first.
func (s TripService) DriverTrips(ctx context.Context, p domain.Principal, status models.TripStatus) ([]models.Trip, error) {
	driverID, err := requireDriver(p)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, domain.ValidationError{Field: "status", Msg: "unknown trip status"}
	}
	return s.Store.Trips().List(ctx, repositories.TripQuery{DriverID: driverID, Status: status})
}

// ListTrips is the admin view of all trips, optionally narrowed to one status or trip date.
func (s TripService) ListTrips(ctx context.Context, p domain.Principal, status models.TripStatus, date *time.Time) ([]models.Trip, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, domain.ValidationError{Field: "status", Msg: "unknown trip status"}
	}
	q := repositories.TripQuery{Status: status}
	if date != nil {
		d := utils.DateOnly(*date)
		q.Date = &d
	}
	return s.Store.Trips().List(ctx, q)
}

// DriverSchedule lists upcoming and running trips from the given day, soonest first.
func (s TripService) DriverSchedule(ctx context.Context, p domain.Principal, from time.Time) ([]models.Trip, error) {
	driverID, err := requireDriver(p)
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = s.Clock.now()
	}
	from = utils.DateOnly(from)
	trips, err := s.Store.Trips().List(ctx, repositories.TripQuery{DriverID: driverID, FromDate: &from})
	if err != nil {
		return nil, err
	}
	out := trips[:0]
	for _, t := range trips {
		if t.Status == models.TripScheduled || t.Status == models.TripInProgress {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetTrip returns a trip with its bookings to an admin or its driver.
func (s TripService) GetTrip(ctx context.Context, p domain.Principal, tripID int64) (models.TripDetail, error) {
	if !p.IsAdmin() {
		if _, err := requireDriver(p); err != nil {
			return models.TripDetail{}, err
		}
	}
	trip, err := s.Store.Trips().GetByID(ctx, tripID)
	if err != nil {
		return models.TripDetail{}, err
	}
	if did, ok := p.Driver(); ok && int64(did) != trip.DriverID {
		return models.TripDetail{}, domain.UnauthorizedError{Msg: "trip is assigned to another driver"}
	}
	bookings, err := s.Store.Bookings().List(ctx, repositories.BookingQuery{TripID: trip.ID})
	if err != nil {
		return models.TripDetail{}, err
	}
	return models.TripDetail{Trip: trip, Bookings: bookings}, nil
}
