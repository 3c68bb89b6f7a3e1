package handlers

import (
	"errors"
	"net/http"

	"shuttle/internal/domain/models"
	"shuttle/internal/http/middleware"
	"shuttle/internal/services"

	"github.com/gin-gonic/gin"
)

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`
}

func (h *Handler) RecordLocation(c *gin.Context) {
	var req locationRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	loc, err := h.locations(c).RecordLocation(c.Request.Context(), principal(c), models.LocationInput{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Speed:     req.Speed,
		Heading:   req.Heading,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, loc)
}

// LatestLocation distinguishes an unknown vehicle from one that has not
// reported yet; the latter keeps the legacy {"success":false} body.
func (h *Handler) LatestLocation(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	loc, err := h.locations(c).LatestLocation(c.Request.Context(), id)
	if errors.Is(err, services.ErrNoLocation) {
		c.JSON(http.StatusNotFound, gin.H{
			"success":    false,
			"message":    "no location data",
			"request_id": middleware.GetRequestID(c),
		})
		return
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, loc)
}

func (h *Handler) TrackBooking(c *gin.Context) {
	tr, err := h.locations(c).TrackBooking(c.Request.Context(), principal(c), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tr)
}

func (h *Handler) LiveMap(c *gin.Context) {
	positions, err := h.locations(c).LiveMap(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, positions)
}
