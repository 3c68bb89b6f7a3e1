package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Cancellable reports whether the booking may still move to CANCELLED.
func (s BookingStatus) Cancellable() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is a student's seat reservation on a schedule for one date. Only
// Status (and TripID, once a trip is materialized) changes after creation.
type Booking struct {
	ID            int64         `json:"id"`
	Code          string        `json:"booking_id"`
	StudentID     int64         `json:"student_id"`
	RouteID       int64         `json:"route_id"`
	ScheduleID    int64         `json:"schedule_id"`
	TripID        *int64        `json:"trip_id,omitempty"`
	Date          time.Time     `json:"booking_date"`
	PickupStopID  int64         `json:"pickup_stop_id"`
	DropoffStopID int64         `json:"dropoff_stop_id"`
	Seats         int           `json:"seats_booked"`
	TotalFare     int64         `json:"total_fare"`
	Status        BookingStatus `json:"status"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BookingDetail is a booking together with its payment record.
type BookingDetail struct {
	Booking Booking  `json:"booking"`
	Payment *Payment `json:"payment,omitempty"`
}

type CreateBookingInput struct {
	RouteCode     string
	ScheduleID    int64
	PickupStopID  int64
	DropoffStopID int64
	Date          time.Time
	Seats         int
	Notes         string
}
