package server

import (
	"net/http"
	"strings"

	adjustmentdomain "github.com/dentaops/denta/internal/adjustment/domain"
	"github.com/gin-gonic/gin"
)

type createAdjustmentBody struct {
	InvoiceID string  `json:"invoice_id"`
	Type      string  `json:"type"`
	Amount    int64   `json:"amount"`
	Reason    string  `json:"reason"`
	CreatedBy *string `json:"created_by"`
}

func (s *Server) CreateAdjustment(c *gin.Context) {
	var body createAdjustmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceID, ok := optionalID(body.InvoiceID)
	if !ok || invoiceID == 0 {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	created, err := s.adjustmentSvc.Create(c.Request.Context(), adjustmentdomain.CreateAdjustmentRequest{
		InvoiceID: invoiceID,
		Type:      adjustmentdomain.AdjustmentType(strings.ToLower(strings.TrimSpace(body.Type))),
		Amount:    body.Amount,
		Reason:    body.Reason,
		CreatedBy: body.CreatedBy,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"adjustment": created})
}

func (s *Server) ListAdjustments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	adjustments, err := s.adjustmentSvc.List(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": adjustments})
}
