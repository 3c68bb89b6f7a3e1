package gtfsimport

import (
	"context"
	"testing"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jamespfennell/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

func sampleFeed() *gtfs.Static {
	weekdays := &gtfs.Service{Id: "WK", Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true}
	saturday := &gtfs.Service{Id: "SAT", Saturday: true}
	gate := &gtfs.Stop{Id: "S1", Name: "Main Gate"}
	library := &gtfs.Stop{Id: "S2", Name: "Library"}
	terminal := &gtfs.Stop{Id: "S3", Name: "North Terminal"}
	north := &gtfs.Route{Id: "north", ShortName: "N", LongName: "North Loop"}

	return &gtfs.Static{
		Routes: []gtfs.Route{*north, {Id: "ghost", ShortName: "G"}},
		Stops:  []gtfs.Stop{*gate, *library, *terminal},
		Trips: []gtfs.ScheduledTrip{
			{
				ID: "T1", Route: north, Service: weekdays,
				StopTimes: []gtfs.ScheduledStopTime{
					{Stop: terminal, StopSequence: 3, ArrivalTime: clock(7, 40), DepartureTime: clock(7, 40)},
					{Stop: gate, StopSequence: 1, ArrivalTime: clock(7, 0), DepartureTime: clock(7, 0)},
					{Stop: library, StopSequence: 2, ArrivalTime: clock(7, 15), DepartureTime: clock(7, 16)},
				},
			},
			{
				ID: "T2", Route: north, Service: saturday,
				StopTimes: []gtfs.ScheduledStopTime{
					{Stop: gate, StopSequence: 1, ArrivalTime: clock(9, 0), DepartureTime: clock(9, 0)},
					{Stop: terminal, StopSequence: 2, ArrivalTime: clock(9, 30), DepartureTime: clock(9, 30)},
				},
			},
		},
	}
}

func TestPlanBuildsRouteFromLongestTrip(t *testing.T) {
	plans, err := Plan(sampleFeed(), Options{VehicleID: 4, Fare: 2500, CodePrefix: "g-"})
	require.NoError(t, err)
	require.Len(t, plans, 1, "routes without trips are skipped")

	p := plans[0]
	assert.Equal(t, "G-NORTH", p.Route.Code)
	assert.Equal(t, "North Loop", p.Route.Name)
	assert.Equal(t, "Main Gate", p.Route.Origin)
	assert.Equal(t, "North Terminal", p.Route.Destination)
	assert.Equal(t, "40m", p.Route.EstimatedDuration)
	assert.Equal(t, models.RouteRound, p.Route.Type)
	assert.Equal(t, int64(2500), p.Route.Fare)
	assert.Equal(t, int64(4), p.Route.VehicleID)

	require.Len(t, p.Stops, 3)
	assert.Equal(t, "Library", p.Stops[1].Name)
	assert.Equal(t, 2, p.Stops[1].Order)
	assert.Equal(t, "07:15", p.Stops[1].EstimatedArrival)

	require.Len(t, p.Schedules, 6)
	assert.Equal(t, models.Schedule{Day: models.Monday, DepartureTime: "07:00", ArrivalTime: "07:40", Active: true}, p.Schedules[0])
	assert.Equal(t, models.Saturday, p.Schedules[5].Day)
	assert.Equal(t, "09:00", p.Schedules[5].DepartureTime)
}

func TestPlanRejectsOverlongRouteCode(t *testing.T) {
	_, err := Plan(sampleFeed(), Options{VehicleID: 4, Fare: 2500, CodePrefix: "campus-shuttle-line-"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), `"north"`)
	assert.Contains(t, err.Error(), "CAMPUS-SHUTTLE-LINE-NORTH")

	plans, err := Plan(sampleFeed(), Options{VehicleID: 4, Fare: 2500, CodePrefix: "campus-shuttle-"})
	require.NoError(t, err)
	assert.Len(t, plans[0].Route.Code, 20)
}

func TestPlanRejectsBadOptions(t *testing.T) {
	_, err := Plan(sampleFeed(), Options{Fare: -1})
	assert.Error(t, err)
	_, err = Plan(sampleFeed(), Options{RouteType: "LOOP"})
	assert.Error(t, err)
}

var vehicleCols = []string{"id", "plate_number", "vehicle_type", "model", "color", "capacity", "year", "is_active"}

func TestApplyWritesNewRoutesAndSkipsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	plans := []RoutePlan{
		{
			Route:     models.Route{Code: "R-NEW", Name: "New", Type: models.RouteRound, VehicleID: 4, Active: true},
			Stops:     []models.Stop{{Name: "A", Order: 1}, {Name: "B", Order: 2}},
			Schedules: []models.Schedule{{Day: models.Monday, DepartureTime: "07:00", Active: true}},
		},
		{Route: models.Route{Code: "R-OLD", Name: "Old", Type: models.RouteRound, VehicleID: 4, Active: true}},
	}

	mock.ExpectQuery("FROM vehicles WHERE id=\\?").WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(vehicleCols).AddRow(4, "NBC 1234", "VAN", "Hiace", "", 12, 2020, true))

	mock.ExpectBegin()
	mock.ExpectQuery("FROM routes WHERE route_code=\\?").WithArgs("R-NEW").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO routes").WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO stops").WithArgs(int64(10), "A", 1, nil).WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec("INSERT INTO stops").WithArgs(int64(10), "B", 2, nil).WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectExec("INSERT INTO schedules").WithArgs(int64(10), "MONDAY", "07:00", nil, true).
		WillReturnResult(sqlmock.NewResult(200, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM routes WHERE route_code=\\?").WithArgs("R-OLD").
		WillReturnRows(sqlmock.NewRows([]string{"id", "route_code", "route_name", "origin", "destination", "distance_km", "fare",
			"estimated_duration", "route_type", "vehicle_id", "is_active"}).
			AddRow(3, "R-OLD", "Old", "", "", 0, 0, "", "ROUND", 4, true))
	mock.ExpectCommit()

	sum, err := Importer{Store: repositories.NewSQLStore(db)}.Apply(context.Background(), plans, 4)
	require.NoError(t, err)
	assert.Equal(t, Summary{Created: 1, Skipped: 1, Stops: 2, Schedules: 1}, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyNeedsVehicle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM vehicles WHERE id=\\?").WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(vehicleCols))

	_, err = Importer{Store: repositories.NewSQLStore(db)}.Apply(context.Background(), nil, 9)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
