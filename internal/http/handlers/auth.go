package handlers

import (
	"net/http"

	"shuttle/internal/http/middleware"
	"shuttle/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.Auth(middleware.GetRequestID(c)).Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

func (h *Handler) RegisterStudent(c *gin.Context) {
	var req services.RegisterStudentInput
	if !BindJSONOrError(c, &req) {
		return
	}
	st, err := h.Auth(middleware.GetRequestID(c)).RegisterStudent(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, st)
}

func (h *Handler) RegisterDriver(c *gin.Context) {
	var req services.RegisterDriverInput
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := h.Auth(middleware.GetRequestID(c)).RegisterDriver(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, d)
}
