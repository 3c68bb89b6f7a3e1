package handlers

import (
	"net/http"
	"strings"

	"shuttle/internal/domain/models"

	"github.com/gin-gonic/gin"
)

type createRouteRequest struct {
	models.Route
	IsActive *bool `json:"is_active"`
}

type addScheduleRequest struct {
	models.Schedule
	IsActive *bool `json:"is_active"`
}

// ListRoutes serves active routes, optionally filtered by ?type= and ?search=.
func (h *Handler) ListRoutes(c *gin.Context) {
	f := models.RouteFilter{
		Type:   models.RouteType(strings.ToUpper(strings.TrimSpace(c.Query("type")))),
		Search: c.Query("search"),
	}
	if f.Type != "" && !f.Type.Valid() {
		respondError(c, http.StatusBadRequest, "validation_error", "unknown route type", gin.H{"field": "type"})
		return
	}
	routes, err := h.catalog(c).ListActiveRoutes(c.Request.Context(), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, routes)
}

func (h *Handler) RouteDetail(c *gin.Context) {
	detail, err := h.catalog(c).RouteDetail(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, detail)
}

func (h *Handler) CreateRoute(c *gin.Context) {
	var req createRouteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.Route.Active = activeOrDefault(req.IsActive)
	rt, err := h.catalog(c).CreateRoute(c.Request.Context(), principal(c), req.Route)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, rt)
}

func (h *Handler) AddStop(c *gin.Context) {
	var req models.Stop
	if !BindJSONOrError(c, &req) {
		return
	}
	st, err := h.catalog(c).AddStop(c.Request.Context(), principal(c), c.Param("code"), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, st)
}

func (h *Handler) AddSchedule(c *gin.Context) {
	var req addScheduleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	req.Schedule.Active = activeOrDefault(req.IsActive)
	sc, err := h.catalog(c).AddSchedule(c.Request.Context(), principal(c), c.Param("code"), req.Schedule)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, sc)
}

// AdminRoutes lists every route, inactive ones included.
func (h *Handler) AdminRoutes(c *gin.Context) {
	routes, err := h.catalog(c).ListRoutes(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, routes)
}
