package models

import "time"

type StatusCount struct {
	Status BookingStatus `json:"status"`
	Count  int           `json:"count"`
}

type MonthlyTotal struct {
	Month time.Time `json:"month"`
	Total int64     `json:"total"`
}

// DashboardCounts are the headline numbers of the admin dashboard.
type DashboardCounts struct {
	ActiveStudents int `json:"active_students"`
	ActiveDrivers  int `json:"active_drivers"`
	ActiveRoutes   int `json:"active_routes"`
	TodayTrips     int `json:"today_trips"`
}

type AdminSummary struct {
	DashboardCounts
	Revenue          int64          `json:"total_revenue"`
	PendingBookings  int            `json:"pending_bookings"`
	BookingsByStatus []StatusCount  `json:"bookings_by_status"`
	MonthlyRevenue   []MonthlyTotal `json:"monthly_revenue"`
}

type DriverEarnings struct {
	DriverID        int64          `json:"driver_id"`
	CompletedTrips  int            `json:"completed_trips"`
	TotalEarnings   int64          `json:"total_earnings"`
	MonthlyEarnings []MonthlyTotal `json:"monthly_earnings"`
}
