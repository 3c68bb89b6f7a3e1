package utils

import (
	"errors"
	"math"
)

// ErrFareOverflow is returned when perSeat * seats does not fit in int64.
var ErrFareOverflow = errors.New("total fare overflows")

// TotalFare is the route's flat per-seat fare times the seats booked. Pickup
// and dropoff stops never change the price.
func TotalFare(perSeat int64, seats int) (int64, error) {
	if seats <= 0 || perSeat <= 0 {
		return 0, nil
	}
	if perSeat > math.MaxInt64/int64(seats) {
		return 0, ErrFareOverflow
	}
	return perSeat * int64(seats), nil
}
