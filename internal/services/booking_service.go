package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/metrics"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"
)

const codeAttempts = 3

// maxSeats matches the seats_booked INT column.
const maxSeats = math.MaxInt32

// CapacityPolicy is an optional seat check run inside the booking transaction.
// Bookings are not capacity-limited when no policy is configured.
type CapacityPolicy interface {
	Check(ctx context.Context, tx repositories.Store, route models.Route, schedule models.Schedule, date time.Time, seats int) error
}

// BookingService owns the booking ledger and its payment records.
type BookingService struct {
	Store     repositories.Store
	Clock     Clock
	Metrics   *metrics.Collector
	Capacity  CapacityPolicy
	RequestID string
	NewCode   func(prefix string, at time.Time) string
}

func (s BookingService) code(prefix string, at time.Time) string {
	if s.NewCode != nil {
		return s.NewCode(prefix, at)
	}
	return utils.ReferenceCode(prefix, at)
}

// CreateBooking reserves seats for the calling student and opens a pending
// cash payment for the full fare.
func (s BookingService) CreateBooking(ctx context.Context, p domain.Principal, in models.CreateBookingInput) (models.BookingDetail, error) {
	studentID, err := requireStudent(p)
	if err != nil {
		return models.BookingDetail{}, err
	}
	if in.Seats < 1 {
		return models.BookingDetail{}, domain.ValidationError{Field: "seats_booked", Msg: "must be at least 1"}
	}
	if in.Seats > maxSeats {
		return models.BookingDetail{}, domain.ValidationError{Field: "seats_booked", Msg: "too many seats"}
	}
	if in.Date.IsZero() {
		return models.BookingDetail{}, domain.ValidationError{Field: "booking_date", Msg: "required"}
	}
	date := utils.DateOnly(in.Date)
	now := s.Clock.now()

	var out models.BookingDetail
	err = s.Store.InTx(ctx, func(tx repositories.Store) error {
		student, err := tx.Accounts().GetStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if !student.Active {
			return domain.NotFoundError{Resource: "student"}
		}

		route, err := tx.Routes().GetByCode(ctx, strings.TrimSpace(in.RouteCode))
		if err != nil {
			return err
		}
		if !route.Active {
			return domain.NotFoundError{Resource: "route"}
		}
		schedule, err := tx.Routes().GetSchedule(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		if !schedule.Active || schedule.RouteID != route.ID {
			return domain.NotFoundError{Resource: "schedule"}
		}
		if err := s.checkStops(ctx, tx, route, in.PickupStopID, in.DropoffStopID); err != nil {
			return err
		}
		if s.Capacity != nil {
			if err := s.Capacity.Check(ctx, tx, route, schedule, date, in.Seats); err != nil {
				return err
			}
		}

		total, err := utils.TotalFare(route.Fare, in.Seats)
		if err != nil {
			return domain.ValidationError{Field: "seats_booked", Msg: "total fare out of range", Err: err}
		}
		b := models.Booking{
			StudentID:     studentID,
			RouteID:       route.ID,
			ScheduleID:    schedule.ID,
			Date:          date,
			PickupStopID:  in.PickupStopID,
			DropoffStopID: in.DropoffStopID,
			Seats:         in.Seats,
			TotalFare:     total,
			Status:        models.BookingPending,
			Notes:         strings.TrimSpace(in.Notes),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		trip, err := tx.Trips().GetByKey(ctx, models.TripKey{RouteID: route.ID, ScheduleID: schedule.ID, Date: date})
		switch {
		case err == nil && trip.Status != models.TripCancelled:
			tripID := trip.ID
			b.TripID = &tripID
		case err != nil && !domain.IsNotFound(err):
			return err
		}
		if err := s.insertBooking(ctx, tx, &b, now); err != nil {
			return err
		}

		pay := models.Payment{
			BookingID: b.ID,
			Amount:    b.TotalFare,
			Method:    models.PaymentCash,
			Status:    models.PaymentPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.insertPayment(ctx, tx, &pay, now); err != nil {
			return err
		}
		out = models.BookingDetail{Booking: b, Payment: &pay}
		return nil
	})
	if err != nil {
		return models.BookingDetail{}, err
	}

	s.Metrics.BookingCreated()
	utils.LogEvent(s.RequestID, "booking", "create", fmt.Sprintf("code=%s student_id=%d seats=%d fare=%s",
		out.Booking.Code, studentID, out.Booking.Seats, utils.FormatPeso(out.Booking.TotalFare)))
	return out, nil
}

// checkStops requires both stops on the route, distinct, with the dropoff
// further along than the pickup.
func (s BookingService) checkStops(ctx context.Context, tx repositories.Store, route models.Route, pickupID, dropoffID int64) error {
	pickup, err := tx.Routes().GetStop(ctx, pickupID)
	if err != nil {
		return err
	}
	dropoff, err := tx.Routes().GetStop(ctx, dropoffID)
	if err != nil {
		return err
	}
	if pickup.RouteID != route.ID {
		return domain.ValidationError{Field: "pickup_stop_id", Msg: "stop is not on route " + route.Code}
	}
	if dropoff.RouteID != route.ID {
		return domain.ValidationError{Field: "dropoff_stop_id", Msg: "stop is not on route " + route.Code}
	}
	if pickup.ID == dropoff.ID {
		return domain.ValidationError{Field: "dropoff_stop_id", Msg: "must differ from pickup stop"}
	}
	if dropoff.Order <= pickup.Order {
		return domain.ValidationError{Field: "dropoff_stop_id", Msg: "must come after pickup stop"}
	}
	return nil
}

func (s BookingService) insertBooking(ctx context.Context, tx repositories.Store, b *models.Booking, now time.Time) error {
	var err error
	for i := 0; i < codeAttempts; i++ {
		b.Code = s.code("BK", now)
		if err = tx.Bookings().Create(ctx, b); !domain.IsConflict(err) {
			return err
		}
	}
	return domain.InternalError{Msg: "could not allocate booking code", Err: err}
}

func (s BookingService) insertPayment(ctx context.Context, tx repositories.Store, p *models.Payment, now time.Time) error {
	var err error
	for i := 0; i < codeAttempts; i++ {
		p.Code = s.code("PY", now)
		if err = tx.Payments().Create(ctx, p); !domain.IsConflict(err) {
			return err
		}
	}
	return domain.InternalError{Msg: "could not allocate payment code", Err: err}
}

// CancelBooking is the only backward transition. A completed payment is
// flagged REFUNDED in the same transaction.
func (s BookingService) CancelBooking(ctx context.Context, p domain.Principal, code string) (models.BookingDetail, error) {
	if _, isDriver := p.Driver(); isDriver || !p.Valid() {
		return models.BookingDetail{}, domain.UnauthorizedError{Msg: "only the student or an admin may cancel"}
	}

	var out models.BookingDetail
	err := s.Store.InTx(ctx, func(tx repositories.Store) error {
		b, err := tx.Bookings().GetByCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		if sid, ok := p.Student(); ok && int64(sid) != b.StudentID {
			return domain.UnauthorizedError{Msg: "booking belongs to another student"}
		}
		if !b.Status.Cancellable() {
			return domain.InvalidTransitionError{Entity: "booking", From: string(b.Status), Action: "cancel"}
		}
		ok, err := tx.Bookings().UpdateStatus(ctx, b.ID,
			[]models.BookingStatus{models.BookingPending, models.BookingConfirmed}, models.BookingCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return domain.InvalidTransitionError{Entity: "booking", Action: "cancel"}
		}
		b.Status = models.BookingCancelled
		b.UpdatedAt = s.Clock.now()
		out.Booking = b

		pay, err := tx.Payments().GetByBookingID(ctx, b.ID)
		if domain.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if pay.Status == models.PaymentCompleted {
			if _, err := tx.Payments().SetStatus(ctx, pay.ID, models.PaymentCompleted, models.PaymentRefunded); err != nil {
				return err
			}
			pay.Status = models.PaymentRefunded
		}
		out.Payment = &pay
		return nil
	})
	if err != nil {
		return models.BookingDetail{}, err
	}

	s.Metrics.BookingCancelled()
	utils.LogEvent(s.RequestID, "booking", "cancel", "code="+out.Booking.Code)
	return out, nil
}

// ConfirmBooking moves a pending booking to CONFIRMED ahead of its trip.
func (s BookingService) ConfirmBooking(ctx context.Context, p domain.Principal, code string) (models.Booking, error) {
	if err := requireAdmin(p); err != nil {
		return models.Booking{}, err
	}
	b, err := s.Store.Bookings().GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return models.Booking{}, err
	}
	if b.Status != models.BookingPending {
		return models.Booking{}, domain.InvalidTransitionError{Entity: "booking", From: string(b.Status), Action: "confirm"}
	}
	ok, err := s.Store.Bookings().UpdateStatus(ctx, b.ID, []models.BookingStatus{models.BookingPending}, models.BookingConfirmed)
	if err != nil {
		return models.Booking{}, err
	}
	if !ok {
		return models.Booking{}, domain.InvalidTransitionError{Entity: "booking", Action: "confirm"}
	}
	b.Status = models.BookingConfirmed
	utils.LogEvent(s.RequestID, "booking", "confirm", "code="+b.Code)
	return b, nil
}

func (s BookingService) GetBooking(ctx context.Context, p domain.Principal, code string) (models.BookingDetail, error) {
	b, err := s.Store.Bookings().GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return models.BookingDetail{}, err
	}
	if err := bookingVisible(ctx, s.Store, p, b); err != nil {
		return models.BookingDetail{}, err
	}
	out := models.BookingDetail{Booking: b}
	pay, err := s.Store.Payments().GetByBookingID(ctx, b.ID)
	switch {
	case err == nil:
		out.Payment = &pay
	case !domain.IsNotFound(err):
		return models.BookingDetail{}, err
	}
	return out, nil
}

// ListBookings returns the caller's own bookings, or every booking for admins.
func (s BookingService) ListBookings(ctx context.Context, p domain.Principal, status models.BookingStatus) ([]models.Booking, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ValidationError{Field: "status", Msg: "unknown booking status"}
	}
	q := repositories.BookingQuery{Status: status}
	switch {
	case p.IsAdmin():
	case p.Role == domain.RoleStudent:
		sid, ok := p.Student()
		if !ok {
			return nil, domain.UnauthorizedError{Msg: "student profile missing"}
		}
		q.StudentID = int64(sid)
	default:
		return nil, domain.UnauthorizedError{Msg: "students and admins only"}
	}
	return s.Store.Bookings().List(ctx, q)
}

// SettlePayment records a completed payment. The amount stays as booked.
func (s BookingService) SettlePayment(ctx context.Context, p domain.Principal, code string, method models.PaymentMethod, reference string) (models.Payment, error) {
	if err := requireAdmin(p); err != nil {
		return models.Payment{}, err
	}
	method = models.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(method))))
	if method == "" {
		method = models.PaymentCash
	}
	if !method.Valid() {
		return models.Payment{}, domain.ValidationError{Field: "payment_method", Msg: "unknown payment method"}
	}

	b, pay, err := s.bookingPayment(ctx, code)
	if err != nil {
		return models.Payment{}, err
	}
	if b.Status == models.BookingCancelled {
		return models.Payment{}, domain.InvalidTransitionError{Entity: "payment", From: string(pay.Status), Action: "settle cancelled booking"}
	}
	if pay.Status != models.PaymentPending {
		return models.Payment{}, domain.InvalidTransitionError{Entity: "payment", From: string(pay.Status), Action: "settle"}
	}
	paidAt := s.Clock.now()
	reference = strings.TrimSpace(reference)
	ok, err := s.Store.Payments().Settle(ctx, pay.ID, method, reference, paidAt)
	if err != nil {
		return models.Payment{}, err
	}
	if !ok {
		return models.Payment{}, domain.InvalidTransitionError{Entity: "payment", Action: "settle"}
	}
	pay.Status = models.PaymentCompleted
	pay.Method = method
	pay.Reference = reference
	pay.PaidAt = &paidAt
	utils.LogEvent(s.RequestID, "payment", "settle", fmt.Sprintf("booking=%s method=%s amount=%s", b.Code, method, utils.FormatPeso(pay.Amount)))
	return pay, nil
}

func (s BookingService) FailPayment(ctx context.Context, p domain.Principal, code string) (models.Payment, error) {
	if err := requireAdmin(p); err != nil {
		return models.Payment{}, err
	}
	b, pay, err := s.bookingPayment(ctx, code)
	if err != nil {
		return models.Payment{}, err
	}
	if pay.Status != models.PaymentPending {
		return models.Payment{}, domain.InvalidTransitionError{Entity: "payment", From: string(pay.Status), Action: "fail"}
	}
	ok, err := s.Store.Payments().SetStatus(ctx, pay.ID, models.PaymentPending, models.PaymentFailed)
	if err != nil {
		return models.Payment{}, err
	}
	if !ok {
		return models.Payment{}, domain.InvalidTransitionError{Entity: "payment", Action: "fail"}
	}
	pay.Status = models.PaymentFailed
	utils.LogEvent(s.RequestID, "payment", "fail", "booking="+b.Code)
	return pay, nil
}

func (s BookingService) bookingPayment(ctx context.Context, code string) (models.Booking, models.Payment, error) {
	b, err := s.Store.Bookings().GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return models.Booking{}, models.Payment{}, err
	}
	pay, err := s.Store.Payments().GetByBookingID(ctx, b.ID)
	if err != nil {
		return models.Booking{}, models.Payment{}, err
	}
	return b, pay, nil
}

// bookingVisible lets admins see everything, students their own bookings and
// drivers the bookings on trips they drive.
func bookingVisible(ctx context.Context, store repositories.Store, p domain.Principal, b models.Booking) error {
	if p.IsAdmin() {
		return nil
	}
	if sid, ok := p.Student(); ok {
		if int64(sid) == b.StudentID {
			return nil
		}
		return domain.UnauthorizedError{Msg: "booking belongs to another student"}
	}
	if did, ok := p.Driver(); ok {
		if b.TripID == nil {
			return domain.UnauthorizedError{Msg: "booking is not on your trip"}
		}
		trip, err := store.Trips().GetByID(ctx, *b.TripID)
		if err != nil && !domain.IsNotFound(err) {
			return err
		}
		if err == nil && trip.DriverID == int64(did) {
			return nil
		}
		return domain.UnauthorizedError{Msg: "booking is not on your trip"}
	}
	return domain.UnauthorizedError{}
}
