// Package gtfsimport seeds the route catalog from a GTFS static feed.
package gtfsimport

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"

	"github.com/jamespfennell/gtfs"
)

type Options struct {
	VehicleID  int64
	Fare       int64
	RouteType  models.RouteType
	CodePrefix string
}

// RoutePlan is one catalog route derived from a GTFS route.
type RoutePlan struct {
	Route     models.Route
	Stops     []models.Stop
	Schedules []models.Schedule
}

type Summary struct {
	Created   int
	Skipped   int
	Stops     int
	Schedules int
}

type Importer struct {
	Store     repositories.Store
	RequestID string
}

// Import parses a GTFS zip and writes every route whose code is not yet in
// the catalog. Each route is written in its own transaction.
func (im Importer) Import(ctx context.Context, data []byte, opts Options) (Summary, error) {
	static, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return Summary{}, fmt.Errorf("parse gtfs: %w", err)
	}
	plans, err := Plan(static, opts)
	if err != nil {
		return Summary{}, err
	}
	return im.Apply(ctx, plans, opts.VehicleID)
}

func (im Importer) Apply(ctx context.Context, plans []RoutePlan, vehicleID int64) (Summary, error) {
	var sum Summary
	if _, err := im.Store.Vehicles().GetByID(ctx, vehicleID); err != nil {
		return sum, err
	}
	for _, p := range plans {
		created := false
		err := im.Store.InTx(ctx, func(tx repositories.Store) error {
			routes := tx.Routes()
			if _, err := routes.GetByCode(ctx, p.Route.Code); err == nil {
				return nil
			} else if !domain.IsNotFound(err) {
				return err
			}
			rt := p.Route
			if err := routes.Create(ctx, &rt); err != nil {
				return err
			}
			for _, s := range p.Stops {
				s.RouteID = rt.ID
				if err := routes.CreateStop(ctx, &s); err != nil {
					return err
				}
			}
			for _, sc := range p.Schedules {
				sc.RouteID = rt.ID
				if err := routes.CreateSchedule(ctx, &sc); err != nil {
					return err
				}
			}
			created = true
			return nil
		})
		if err != nil {
			return sum, fmt.Errorf("import route %s: %w", p.Route.Code, err)
		}
		if !created {
			sum.Skipped++
			continue
		}
		sum.Created++
		sum.Stops += len(p.Stops)
		sum.Schedules += len(p.Schedules)
	}
	utils.LogEvent(im.RequestID, "gtfs", "import", fmt.Sprintf("created=%d skipped=%d stops=%d schedules=%d",
		sum.Created, sum.Skipped, sum.Stops, sum.Schedules))
	return sum, nil
}

// Plan maps GTFS routes onto catalog routes. Stops come from the route's
// longest trip; every trip contributes one schedule per weekday its service
// runs, keyed by the trip's first departure.
func Plan(static *gtfs.Static, opts Options) ([]RoutePlan, error) {
	if opts.Fare < 0 {
		return nil, domain.ValidationError{Field: "fare", Msg: "must not be negative"}
	}
	routeType := opts.RouteType
	if routeType == "" {
		routeType = models.RouteRound
	}
	if !routeType.Valid() {
		return nil, domain.ValidationError{Field: "route_type", Msg: "unknown route type"}
	}

	tripsByRoute := map[string][]*gtfs.ScheduledTrip{}
	for i := range static.Trips {
		t := &static.Trips[i]
		if t.Route == nil || len(t.StopTimes) == 0 {
			continue
		}
		tripsByRoute[t.Route.Id] = append(tripsByRoute[t.Route.Id], t)
	}

	out := []RoutePlan{}
	for _, r := range static.Routes {
		trips := tripsByRoute[r.Id]
		if len(trips) == 0 {
			continue
		}
		code := strings.ToUpper(opts.CodePrefix + strings.TrimSpace(r.Id))
		if len(code) > models.MaxRouteCodeLen {
			return nil, domain.ValidationError{
				Field: "route_code",
				Msg:   fmt.Sprintf("route %q: code %q exceeds %d characters", r.Id, code, models.MaxRouteCodeLen),
			}
		}
		longest := longestTrip(trips)
		stopTimes := ordered(longest.StopTimes)

		plan := RoutePlan{Route: models.Route{
			Code:      code,
			Name:      utils.FirstNonEmpty(r.LongName, r.ShortName, r.Id),
			Fare:      opts.Fare,
			Type:      routeType,
			VehicleID: opts.VehicleID,
			Active:    true,
		}}
		for _, st := range stopTimes {
			if st.Stop == nil {
				continue
			}
			if n := len(plan.Stops); n > 0 && plan.Stops[n-1].Name == stopName(st.Stop) {
				continue
			}
			plan.Stops = append(plan.Stops, models.Stop{
				Name:             stopName(st.Stop),
				Order:            len(plan.Stops) + 1,
				EstimatedArrival: utils.ClockFromDuration(st.ArrivalTime),
			})
		}
		if len(plan.Stops) > 0 {
			plan.Route.Origin = plan.Stops[0].Name
			plan.Route.Destination = plan.Stops[len(plan.Stops)-1].Name
		}
		if d := span(stopTimes); d > 0 {
			plan.Route.EstimatedDuration = fmt.Sprintf("%dm", int(d.Minutes()))
		}
		plan.Schedules = schedulesFor(trips)
		out = append(out, plan)
	}
	return out, nil
}

func longestTrip(trips []*gtfs.ScheduledTrip) *gtfs.ScheduledTrip {
	best := trips[0]
	for _, t := range trips[1:] {
		if len(t.StopTimes) > len(best.StopTimes) || (len(t.StopTimes) == len(best.StopTimes) && t.ID < best.ID) {
			best = t
		}
	}
	return best
}

func ordered(in []gtfs.ScheduledStopTime) []gtfs.ScheduledStopTime {
	out := append([]gtfs.ScheduledStopTime(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StopSequence < out[j].StopSequence })
	return out
}

func span(sts []gtfs.ScheduledStopTime) time.Duration {
	if len(sts) < 2 {
		return 0
	}
	return sts[len(sts)-1].ArrivalTime - sts[0].DepartureTime
}

func stopName(s *gtfs.Stop) string {
	return utils.FirstNonEmpty(s.Name, s.Id)
}

func schedulesFor(trips []*gtfs.ScheduledTrip) []models.Schedule {
	seen := map[string]bool{}
	out := []models.Schedule{}
	for _, t := range trips {
		sts := ordered(t.StopTimes)
		dep := utils.ClockFromDuration(sts[0].DepartureTime)
		arr := utils.ClockFromDuration(sts[len(sts)-1].ArrivalTime)
		if arr <= dep {
			arr = ""
		}
		for _, day := range serviceDays(t.Service) {
			key := string(day) + " " + dep
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, models.Schedule{Day: day, DepartureTime: dep, ArrivalTime: arr, Active: true})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func serviceDays(s *gtfs.Service) []models.DayOfWeek {
	if s == nil {
		return nil
	}
	days := []models.DayOfWeek{}
	for _, d := range []struct {
		on  bool
		day models.DayOfWeek
	}{
		{s.Monday, models.Monday}, {s.Tuesday, models.Tuesday}, {s.Wednesday, models.Wednesday},
		{s.Thursday, models.Thursday}, {s.Friday, models.Friday}, {s.Saturday, models.Saturday},
		{s.Sunday, models.Sunday},
	} {
		if d.on {
			days = append(days, d.day)
		}
	}
	return days
}
