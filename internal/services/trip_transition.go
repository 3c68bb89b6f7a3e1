package services

import (
	"context"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
)

// BookingCascade moves every booking of a trip from one status to another.
type BookingCascade struct {
	From models.BookingStatus
	To   models.BookingStatus
}

// Transition is one edge of the trip state machine together with the booking
// cascade it implies. Apply runs inside a caller-provided transaction.
type Transition struct {
	Name    string
	From    models.TripStatus
	To      models.TripStatus
	Stamp   func(t *models.Trip, at time.Time)
	Cascade *BookingCascade
}

var (
	TripStart = Transition{
		Name:    "start",
		From:    models.TripScheduled,
		To:      models.TripInProgress,
		Stamp:   func(t *models.Trip, at time.Time) { t.StartedAt = &at },
		Cascade: &BookingCascade{From: models.BookingPending, To: models.BookingConfirmed},
	}
	TripComplete = Transition{
		Name:    "complete",
		From:    models.TripInProgress,
		To:      models.TripCompleted,
		Stamp:   func(t *models.Trip, at time.Time) { t.CompletedAt = &at },
		Cascade: &BookingCascade{From: models.BookingConfirmed, To: models.BookingCompleted},
	}
	TripCancel = Transition{
		Name: "cancel",
		From: models.TripScheduled,
		To:   models.TripCancelled,
	}
)

// Apply locks the trip, checks authorization and the source state, then
// writes the new status and the cascade. Any error leaves nothing written
// once the surrounding transaction rolls back.
func (tr Transition) Apply(ctx context.Context, tx repositories.Store, tripID int64, at time.Time, authorize func(models.Trip) error) (models.Trip, int64, error) {
	trip, err := tx.Trips().GetForUpdate(ctx, tripID)
	if err != nil {
		return models.Trip{}, 0, err
	}
	if authorize != nil {
		if err := authorize(trip); err != nil {
			return models.Trip{}, 0, err
		}
	}
	if trip.Status != tr.From {
		return models.Trip{}, 0, domain.InvalidTransitionError{Entity: "trip", From: string(trip.Status), Action: tr.Name}
	}

	trip.Status = tr.To
	if tr.Stamp != nil {
		tr.Stamp(&trip, at)
	}
	ok, err := tx.Trips().UpdateStatus(ctx, trip, tr.From)
	if err != nil {
		return models.Trip{}, 0, err
	}
	if !ok {
		return models.Trip{}, 0, domain.InvalidTransitionError{Entity: "trip", Action: tr.Name}
	}

	if tr.Cascade == nil {
		return trip, 0, nil
	}
	n, err := tx.Bookings().CascadeTripStatus(ctx, trip.ID, tr.Cascade.From, tr.Cascade.To)
	if err != nil {
		return models.Trip{}, 0, err
	}
	return trip, n, nil
}
