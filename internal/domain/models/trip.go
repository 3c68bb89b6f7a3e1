package models

import "time"

type TripStatus string

const (
	TripScheduled  TripStatus = "SCHEDULED"
	TripInProgress TripStatus = "IN_PROGRESS"
	TripCompleted  TripStatus = "COMPLETED"
	TripCancelled  TripStatus = "CANCELLED"
)

func (s TripStatus) Valid() bool {
	switch s {
	case TripScheduled, TripInProgress, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// Trip materializes a schedule on one date. (RouteID, ScheduleID, Date) is unique.
type Trip struct {
	ID          int64      `json:"id"`
	RouteID     int64      `json:"route_id"`
	ScheduleID  int64      `json:"schedule_id"`
	DriverID    int64      `json:"driver_id"`
	Date        time.Time  `json:"trip_date"`
	Status      TripStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TripKey identifies the single trip allowed per schedule occurrence.
type TripKey struct {
	RouteID    int64
	ScheduleID int64
	Date       time.Time
}

type TripDetail struct {
	Trip     Trip      `json:"trip"`
	Bookings []Booking `json:"bookings"`
}
