package models

import "time"

// VehicleLocation is one GPS sample. Samples are append-only; the current
// position of a vehicle is the sample with the latest RecordedAt.
type VehicleLocation struct {
	ID         int64     `json:"id"`
	VehicleID  int64     `json:"vehicle_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	RecordedAt time.Time `json:"timestamp"`
}

type LocationInput struct {
	Latitude  float64
	Longitude float64
	Speed     *float64
	Heading   *float64
}

// VehiclePosition pairs a vehicle with its latest sample for map views.
type VehiclePosition struct {
	Vehicle  Vehicle          `json:"vehicle"`
	Location *VehicleLocation `json:"location"`
}

// BookingTracking is what a rider sees when following a booking: the route,
// its vehicle and the vehicle's latest sample, which may be missing.
type BookingTracking struct {
	BookingCode string           `json:"booking_id"`
	Status      BookingStatus    `json:"status"`
	Route       Route            `json:"route"`
	VehicleID   int64            `json:"vehicle_id"`
	Location    *VehicleLocation `json:"location"`
}
