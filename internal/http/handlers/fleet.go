package handlers

import (
	"net/http"

	"shuttle/internal/domain/models"
	"shuttle/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

type createVehicleRequest struct {
	models.Vehicle
	IsActive *bool `json:"is_active"`
}

type assignVehicleRequest struct {
	VehicleID int64 `json:"vehicle_id" binding:"required"`
}

func (h *Handler) ApproveDriver(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	d, err := h.Auth(middleware.GetRequestID(c)).ApproveDriver(c.Request.Context(), principal(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, d)
}

func (h *Handler) AssignVehicle(c *gin.Context) {
	id, valid := paramID(c, "id")
	if !valid {
		return
	}
	var req assignVehicleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := h.Auth(middleware.GetRequestID(c)).AssignVehicle(c.Request.Context(), principal(c), id, req.VehicleID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, d)
}

func (h *Handler) CreateVehicle(c *gin.Context) {
	var req createVehicleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.Vehicle.Active = activeOrDefault(req.IsActive)
	v, err := h.Auth(middleware.GetRequestID(c)).CreateVehicle(c.Request.Context(), principal(c), req.Vehicle)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, v)
}

func (h *Handler) ListVehicles(c *gin.Context) {
	list, err := h.Auth(middleware.GetRequestID(c)).ListVehicles(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

func (h *Handler) ListDrivers(c *gin.Context) {
	list, err := h.Auth(middleware.GetRequestID(c)).ListDrivers(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

func (h *Handler) ListStudents(c *gin.Context) {
	list, err := h.Auth(middleware.GetRequestID(c)).ListStudents(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}
