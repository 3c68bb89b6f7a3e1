package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BookingTicket returns the booking e-ticket (inline).
func (h *Handler) BookingTicket(c *gin.Context) {
	pdfBytes, filename, err := h.docs(c).BookingTicket(c.Request.Context(), principal(c), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, pdfBytes, filename)
}

// PaymentReceipt returns the receipt of a completed payment (inline).
func (h *Handler) PaymentReceipt(c *gin.Context) {
	pdfBytes, filename, err := h.docs(c).PaymentReceipt(c.Request.Context(), principal(c), c.Param("code"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, pdfBytes, filename)
}

func sendPDF(c *gin.Context, body []byte, filename string) {
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", body)
}
