package models

import (
	"strings"
	"time"
)

type VehicleType string

const (
	VehicleVan     VehicleType = "VAN"
	VehicleBus     VehicleType = "BUS"
	VehicleJeepney VehicleType = "JEEPNEY"
	VehicleCoaster VehicleType = "COASTER"
)

func (t VehicleType) Valid() bool {
	switch t {
	case VehicleVan, VehicleBus, VehicleJeepney, VehicleCoaster:
		return true
	}
	return false
}

type Vehicle struct {
	ID          int64       `json:"id"`
	PlateNumber string      `json:"plate_number"`
	Type        VehicleType `json:"vehicle_type"`
	Model       string      `json:"model"`
	Color       string      `json:"color,omitempty"`
	Capacity    int         `json:"capacity"`
	Year        int         `json:"year"`
	Active      bool        `json:"is_active"`
}

type RouteType string

const (
	RoutePickup RouteType = "PICKUP"
	RouteDrop   RouteType = "DROP"
	RouteRound  RouteType = "ROUND"
)

func (t RouteType) Valid() bool {
	switch t {
	case RoutePickup, RouteDrop, RouteRound:
		return true
	}
	return false
}

// Route is a fare-bearing path served by one vehicle. Fare is a flat rate per
// seat in centavos.
// MaxRouteCodeLen is the width of routes.route_code.
const MaxRouteCodeLen = 20

type Route struct {
	ID                int64     `json:"id"`
	Code              string    `json:"route_code"`
	Name              string    `json:"route_name"`
	Origin            string    `json:"origin"`
	Destination       string    `json:"destination"`
	DistanceKM        float64   `json:"distance_km"`
	Fare              int64     `json:"fare"`
	EstimatedDuration string    `json:"estimated_duration,omitempty"`
	Type              RouteType `json:"route_type"`
	VehicleID         int64     `json:"vehicle_id"`
	Active            bool      `json:"is_active"`
}

// RouteFilter narrows ListActiveRoutes. Empty fields match everything.
type RouteFilter struct {
	Type   RouteType
	Search string
}

// Matches applies the filter in memory; repositories push the same rule into SQL.
func (f RouteFilter) Matches(r Route) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	for _, field := range []string{r.Name, r.Origin, r.Destination} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Stop is an ordered waypoint. Order is 1-based and unique within the route.
type Stop struct {
	ID               int64  `json:"id"`
	RouteID          int64  `json:"route_id"`
	Name             string `json:"stop_name"`
	Order            int    `json:"stop_order"`
	EstimatedArrival string `json:"estimated_arrival_time,omitempty"`
}

type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var weekOrder = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index returns the position of the day in a Monday-first week, or -1.
func (d DayOfWeek) Index() int {
	for i, w := range weekOrder {
		if w == d {
			return i
		}
	}
	return -1
}

func (d DayOfWeek) Valid() bool { return d.Index() >= 0 }

// DayOf maps a calendar date to its DayOfWeek.
func DayOf(t time.Time) DayOfWeek {
	return weekOrder[(int(t.Weekday())+6)%7]
}

// Schedule is a recurring (day, departure) service of a route, independent of
// any calendar date. Times are "15:04".
type Schedule struct {
	ID            int64     `json:"id"`
	RouteID       int64     `json:"route_id"`
	Day           DayOfWeek `json:"day_of_week"`
	DepartureTime string    `json:"departure_time"`
	ArrivalTime   string    `json:"arrival_time,omitempty"`
	Active        bool      `json:"is_active"`
}

// Before orders schedules by weekday and then departure time.
func (s Schedule) Before(o Schedule) bool {
	if s.Day != o.Day {
		return s.Day.Index() < o.Day.Index()
	}
	return s.DepartureTime < o.DepartureTime
}

// RouteDetail is a route with its ordered stops and active schedules.
type RouteDetail struct {
	Route     Route      `json:"route"`
	Stops     []Stop     `json:"stops"`
	Schedules []Schedule `json:"schedules"`
}
