package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/metrics"
	"shuttle/internal/publisher"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"
)

// ErrNoLocation is returned when a known vehicle has no samples yet.
var ErrNoLocation = domain.NotFoundError{Resource: "location data"}

// LocationService appends GPS samples and answers latest-position reads.
type LocationService struct {
	Store     repositories.Store
	Publisher publisher.LocationPublisher
	Clock     Clock
	Metrics   *metrics.Collector
	RequestID string
}

// RecordLocation stores a sample for the calling driver's vehicle, stamped
// with server time. Values are not range-checked.
func (s LocationService) RecordLocation(ctx context.Context, p domain.Principal, in models.LocationInput) (models.VehicleLocation, error) {
	driverID, err := requireDriver(p)
	if err != nil {
		return models.VehicleLocation{}, err
	}
	loc := models.VehicleLocation{Latitude: in.Latitude, Longitude: in.Longitude}
	if in.Speed != nil {
		loc.Speed = *in.Speed
	}
	if in.Heading != nil {
		loc.Heading = *in.Heading
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"latitude", loc.Latitude}, {"longitude", loc.Longitude}, {"speed", loc.Speed}, {"heading", loc.Heading},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return models.VehicleLocation{}, domain.ValidationError{Field: f.name, Msg: "must be a finite number"}
		}
	}

	driver, err := s.Store.Accounts().GetDriver(ctx, driverID)
	if err != nil {
		return models.VehicleLocation{}, err
	}
	if driver.VehicleID == nil {
		return models.VehicleLocation{}, domain.NotFoundError{Resource: "assigned vehicle"}
	}
	loc.VehicleID = *driver.VehicleID
	loc.RecordedAt = s.Clock.now()

	if err := s.Store.Locations().Append(ctx, &loc); err != nil {
		return models.VehicleLocation{}, err
	}
	s.Metrics.LocationRecorded()

	if s.Publisher != nil {
		if err := s.Publisher.PublishLocation(loc); err != nil {
			utils.LogEvent(s.RequestID, "location", "publish", fmt.Sprintf("vehicle_id=%d err=%v", loc.VehicleID, err))
		}
	}
	return loc, nil
}

// LatestLocation returns the newest sample of a vehicle or ErrNoLocation.
func (s LocationService) LatestLocation(ctx context.Context, vehicleID int64) (models.VehicleLocation, error) {
	if _, err := s.Store.Vehicles().GetByID(ctx, vehicleID); err != nil {
		return models.VehicleLocation{}, err
	}
	return s.latest(ctx, vehicleID)
}

func (s LocationService) latest(ctx context.Context, vehicleID int64) (models.VehicleLocation, error) {
	loc, err := s.Store.Locations().Latest(ctx, vehicleID)
	if domain.IsNotFound(err) {
		return models.VehicleLocation{}, ErrNoLocation
	}
	return loc, err
}

// TrackBooking follows the vehicle serving a booking's route.
func (s LocationService) TrackBooking(ctx context.Context, p domain.Principal, code string) (models.BookingTracking, error) {
	b, err := s.Store.Bookings().GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return models.BookingTracking{}, err
	}
	if err := bookingVisible(ctx, s.Store, p, b); err != nil {
		return models.BookingTracking{}, err
	}
	route, err := s.Store.Routes().GetByID(ctx, b.RouteID)
	if err != nil {
		return models.BookingTracking{}, err
	}

	out := models.BookingTracking{BookingCode: b.Code, Status: b.Status, Route: route, VehicleID: route.VehicleID}
	loc, err := s.latest(ctx, route.VehicleID)
	switch {
	case err == nil:
		out.Location = &loc
	case !errors.Is(err, ErrNoLocation):
		return models.BookingTracking{}, err
	}
	return out, nil
}

// LiveMap lists active vehicles that have reported at least once.
func (s LocationService) LiveMap(ctx context.Context) ([]models.VehiclePosition, error) {
	vehicles, err := s.Store.Vehicles().List(ctx, true)
	if err != nil {
		return nil, err
	}
	out := []models.VehiclePosition{}
	for _, v := range vehicles {
		loc, err := s.latest(ctx, v.ID)
		if errors.Is(err, ErrNoLocation) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, models.VehiclePosition{Vehicle: v, Location: &loc})
	}
	return out, nil
}
