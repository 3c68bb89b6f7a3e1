package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/services"
	"shuttle/internal/utils"

	"github.com/gin-gonic/gin"
)

type ensureTripRequest struct {
	RouteID    int64  `json:"route_id" binding:"required"`
	ScheduleID int64  `json:"schedule_id" binding:"required"`
	Date       string `json:"trip_date" binding:"required"`
	DriverID   int64  `json:"driver_id" binding:"required"`
}

type assignDriverRequest struct {
	DriverID int64 `json:"driver_id" binding:"required"`
}

// EnsureTrip answers 201 when a trip was created and 200 when it already existed.
func (h *Handler) EnsureTrip(c *gin.Context) {
	var req ensureTripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "trip_date must be YYYY-MM-DD", gin.H{"field": "trip_date"})
		return
	}
	trip, created, err := h.trips(c).EnsureTrip(c.Request.Context(), principal(c), req.RouteID, req.ScheduleID, date, req.DriverID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"success": true, "created": created, "data": trip})
}

func (h *Handler) AssignTripDriver(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req assignDriverRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	trip, err := h.trips(c).AssignDriver(c.Request.Context(), principal(c), id, req.DriverID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, trip)
}

func (h *Handler) StartTrip(c *gin.Context) {
	h.transition(c, services.TripService.StartTrip)
}

func (h *Handler) CompleteTrip(c *gin.Context) {
	h.transition(c, services.TripService.CompleteTrip)
}

func (h *Handler) CancelTrip(c *gin.Context) {
	h.transition(c, services.TripService.CancelTrip)
}

type tripTransition func(services.TripService, context.Context, domain.Principal, int64) (models.Trip, error)

func (h *Handler) transition(c *gin.Context, fn tripTransition) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	trip, err := fn(h.trips(c), c.Request.Context(), principal(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, trip)
}

func (h *Handler) GetTrip(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	detail, err := h.trips(c).GetTrip(c.Request.Context(), principal(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, detail)
}

// DriverTrips lists the calling driver's trips, optionally by ?status=.
func (h *Handler) DriverTrips(c *gin.Context) {
	status := models.TripStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	trips, err := h.trips(c).DriverTrips(c.Request.Context(), principal(c), status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, trips)
}

// DriverSchedule lists upcoming trips from ?from= (YYYY-MM-DD, default today).
func (h *Handler) DriverSchedule(c *gin.Context) {
	var from time.Time
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		d, err := utils.ParseDate(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "from must be YYYY-MM-DD", gin.H{"field": "from"})
			return
		}
		from = d
	}
	trips, err := h.trips(c).DriverSchedule(c.Request.Context(), principal(c), from)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, trips)
}

// ListTrips is the admin trip board, filtered by ?status= and ?date= (YYYY-MM-DD).
func (h *Handler) ListTrips(c *gin.Context) {
	status := models.TripStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	var date *time.Time
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := utils.ParseDate(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "validation_error", "date must be YYYY-MM-DD", gin.H{"field": "date"})
			return
		}
		date = &d
	}
	trips, err := h.trips(c).ListTrips(c.Request.Context(), principal(c), status, date)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, trips)
}
