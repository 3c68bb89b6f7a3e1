package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AdminReports(c *gin.Context) {
	sum, err := h.reports().AdminSummary(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sum)
}

func (h *Handler) DriverEarnings(c *gin.Context) {
	e, err := h.reports().DriverEarnings(c.Request.Context(), principal(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, e)
}
