package handlers

import (
	"net/http"
	"strings"

	"shuttle/internal/domain/models"
	"shuttle/internal/utils"

	"github.com/gin-gonic/gin"
)

type createBookingRequest struct {
	RouteCode     string `json:"route_code" binding:"required"`
	ScheduleID    int64  `json:"schedule_id" binding:"required"`
	PickupStopID  int64  `json:"pickup_stop_id" binding:"required"`
	DropoffStopID int64  `json:"dropoff_stop_id" binding:"required"`
	Date          string `json:"booking_date" binding:"required"`
	Seats         int    `json:"seats_booked"`
	Notes         string `json:"notes"`
}

type settlePaymentRequest struct {
	Method    string `json:"payment_method"`
	Reference string `json:"transaction_reference"`
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "booking_date must be YYYY-MM-DD", gin.H{"field": "booking_date"})
		return
	}
	detail, err := h.bookings(c).CreateBooking(c.Request.Context(), principal(c), models.CreateBookingInput{
		RouteCode:     req.RouteCode,
		ScheduleID:    req.ScheduleID,
		PickupStopID:  req.PickupStopID,
		DropoffStopID: req.DropoffStopID,
		Date:          date,
		Seats:         req.Seats,
		Notes:         req.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, detail)
}

// ListBookings returns the caller's bookings; admins see all. ?status= filters.
func (h *Handler) ListBookings(c *gin.Context) {
	status := models.BookingStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, "validation_error", "unknown booking status", gin.H{"field": "status"})
		return
	}
	list, err := h.bookings(c).ListBookings(c.Request.Context(), principal(c), status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

func (h *Handler) GetBooking(c *gin.Context) {
	detail, err := h.bookings(c).GetBooking(c.Request.Context(), principal(c), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, detail)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	detail, err := h.bookings(c).CancelBooking(c.Request.Context(), principal(c), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, detail)
}

func (h *Handler) ConfirmBooking(c *gin.Context) {
	b, err := h.bookings(c).ConfirmBooking(c.Request.Context(), principal(c), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, b)
}

// SettlePayment marks the booking's payment COMPLETED. An empty body settles
// as cash.
func (h *Handler) SettlePayment(c *gin.Context) {
	var req settlePaymentRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	pay, err := h.bookings(c).SettlePayment(c.Request.Context(), principal(c), c.Param("code"), models.PaymentMethod(req.Method), req.Reference)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, pay)
}

func (h *Handler) FailPayment(c *gin.Context) {
	pay, err := h.bookings(c).FailPayment(c.Request.Context(), principal(c), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, pay)
}
