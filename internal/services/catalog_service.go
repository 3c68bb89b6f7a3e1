package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"
)

// CatalogService serves routes, stops and weekly schedules.
type CatalogService struct {
	Store     repositories.Store
	RequestID string
}

func (s CatalogService) ListActiveRoutes(ctx context.Context, f models.RouteFilter) ([]models.Route, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, domain.ValidationError{Field: "type", Msg: "unknown route type"}
	}
	return s.Store.Routes().ListActive(ctx, f)
}

// RouteDetail returns an active route with ordered stops and active schedules.
func (s CatalogService) RouteDetail(ctx context.Context, code string) (models.RouteDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.RouteDetail{}, domain.NotFoundError{Resource: "route"}
	}
	routes := s.Store.Routes()
	route, err := routes.GetByCode(ctx, code)
	if err != nil {
		return models.RouteDetail{}, err
	}
	if !route.Active {
		return models.RouteDetail{}, domain.NotFoundError{Resource: "route"}
	}

	stops, err := routes.ListStops(ctx, route.ID)
	if err != nil {
		return models.RouteDetail{}, err
	}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Order < stops[j].Order })

	schedules, err := routes.ListSchedules(ctx, route.ID, true)
	if err != nil {
		return models.RouteDetail{}, err
	}
	sort.SliceStable(schedules, func(i, j int) bool { return schedules[i].Before(schedules[j]) })

	return models.RouteDetail{Route: route, Stops: stops, Schedules: schedules}, nil
}

// ListRoutes is the admin catalog listing, inactive routes included.
func (s CatalogService) ListRoutes(ctx context.Context, p domain.Principal) ([]models.Route, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.Store.Routes().List(ctx)
}

func (s CatalogService) CreateRoute(ctx context.Context, p domain.Principal, r models.Route) (models.Route, error) {
	if err := requireAdmin(p); err != nil {
		return models.Route{}, err
	}
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Name = utils.NormalizeSpace(r.Name)
	r.Origin = utils.NormalizeSpace(r.Origin)
	r.Destination = utils.NormalizeSpace(r.Destination)
	switch {
	case r.Code == "":
		return models.Route{}, domain.ValidationError{Field: "route_code", Msg: "required"}
	case len(r.Code) > models.MaxRouteCodeLen:
		return models.Route{}, domain.ValidationError{Field: "route_code", Msg: fmt.Sprintf("must be at most %d characters", models.MaxRouteCodeLen)}
	case r.Name == "":
		return models.Route{}, domain.ValidationError{Field: "route_name", Msg: "required"}
	case r.Fare < 0:
		return models.Route{}, domain.ValidationError{Field: "fare", Msg: "must not be negative"}
	case r.DistanceKM < 0:
		return models.Route{}, domain.ValidationError{Field: "distance_km", Msg: "must not be negative"}
	}
	if r.Type == "" {
		r.Type = models.RouteRound
	}
	if !r.Type.Valid() {
		return models.Route{}, domain.ValidationError{Field: "route_type", Msg: "unknown route type"}
	}
	if _, err := s.Store.Vehicles().GetByID(ctx, r.VehicleID); err != nil {
		return models.Route{}, err
	}

	if err := s.Store.Routes().Create(ctx, &r); err != nil {
		return models.Route{}, err
	}
	utils.LogEvent(s.RequestID, "catalog", "create_route", "code="+r.Code)
	return r, nil
}

func (s CatalogService) AddStop(ctx context.Context, p domain.Principal, routeCode string, stop models.Stop) (models.Stop, error) {
	if err := requireAdmin(p); err != nil {
		return models.Stop{}, err
	}
	stop.Name = utils.NormalizeSpace(stop.Name)
	if stop.Name == "" {
		return models.Stop{}, domain.ValidationError{Field: "stop_name", Msg: "required"}
	}
	if stop.Order < 1 {
		return models.Stop{}, domain.ValidationError{Field: "stop_order", Msg: "must be at least 1"}
	}
	if stop.EstimatedArrival != "" {
		clock, err := utils.NormalizeClock(stop.EstimatedArrival)
		if err != nil {
			return models.Stop{}, domain.ValidationError{Field: "estimated_arrival_time", Msg: err.Error()}
		}
		stop.EstimatedArrival = clock
	}

	route, err := s.Store.Routes().GetByCode(ctx, strings.TrimSpace(routeCode))
	if err != nil {
		return models.Stop{}, err
	}
	stop.RouteID = route.ID
	if err := s.Store.Routes().CreateStop(ctx, &stop); err != nil {
		return models.Stop{}, err
	}
	utils.LogEvent(s.RequestID, "catalog", "add_stop", fmt.Sprintf("route=%s order=%d", route.Code, stop.Order))
	return stop, nil
}

func (s CatalogService) AddSchedule(ctx context.Context, p domain.Principal, routeCode string, sc models.Schedule) (models.Schedule, error) {
	if err := requireAdmin(p); err != nil {
		return models.Schedule{}, err
	}
	sc.Day = models.DayOfWeek(strings.ToUpper(strings.TrimSpace(string(sc.Day))))
	if !sc.Day.Valid() {
		return models.Schedule{}, domain.ValidationError{Field: "day_of_week", Msg: "unknown day"}
	}
	dep, err := utils.NormalizeClock(sc.DepartureTime)
	if err != nil {
		return models.Schedule{}, domain.ValidationError{Field: "departure_time", Msg: err.Error()}
	}
	sc.DepartureTime = dep
	if sc.ArrivalTime != "" {
		arr, err := utils.NormalizeClock(sc.ArrivalTime)
		if err != nil {
			return models.Schedule{}, domain.ValidationError{Field: "arrival_time", Msg: err.Error()}
		}
		if arr <= dep {
			return models.Schedule{}, domain.ValidationError{Field: "arrival_time", Msg: "must be after departure"}
		}
		sc.ArrivalTime = arr
	}

	route, err := s.Store.Routes().GetByCode(ctx, strings.TrimSpace(routeCode))
	if err != nil {
		return models.Schedule{}, err
	}
	sc.RouteID = route.ID
	if err := s.Store.Routes().CreateSchedule(ctx, &sc); err != nil {
		return models.Schedule{}, err
	}
	utils.LogEvent(s.RequestID, "catalog", "add_schedule", fmt.Sprintf("route=%s %s %s", route.Code, sc.Day, sc.DepartureTime))
	return sc, nil
}
