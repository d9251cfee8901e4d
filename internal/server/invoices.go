package server

import (
	"net/http"
	"strings"
	"time"

	invoicedomain "github.com/dentaops/denta/internal/invoice/domain"
	"github.com/dentaops/denta/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createInvoiceItemBody struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
	TreatmentID string `json:"treatment_id"`
}

type createInvoiceBody struct {
	PatientID string                  `json:"patient_id"`
	Currency  string                  `json:"currency"`
	Notes     *string                 `json:"notes"`
	DueAt     *time.Time              `json:"due_at"`
	Items     []createInvoiceItemBody `json:"items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var body createInvoiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patientID, ok := optionalID(body.PatientID)
	if !ok || patientID == 0 {
		AbortWithError(c, newValidationError("patient_id", "invalid_patient", "invalid patient id"))
		return
	}

	items := make([]invoicedomain.CreateInvoiceItem, 0, len(body.Items))
	for _, item := range body.Items {
		entry := invoicedomain.CreateInvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
		}
		if treatmentID, ok := optionalID(item.TreatmentID); ok && treatmentID != 0 {
			entry.TreatmentID = &treatmentID
		}
		items = append(items, entry)
	}

	detail, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		PatientID: patientID,
		Currency:  body.Currency,
		Notes:     body.Notes,
		DueAt:     body.DueAt,
		Items:     items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": detail.Invoice, "items": detail.Items})
}

func (s *Server) GetInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	detail, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": detail.Invoice, "items": detail.Items})
}

func (s *Server) ListInvoices(c *gin.Context) {
	patientID, ok := optionalID(c.Query("patient_id"))
	if !ok {
		AbortWithError(c, newValidationError("patient_id", "invalid_patient", "invalid patient id"))
		return
	}

	var query struct {
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size"`
		Status    string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		PatientID: patientID,
		Status:    invoicedomain.InvoiceStatus(strings.ToUpper(strings.TrimSpace(query.Status))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "page_info": resp.PageInfo})
}

// MarkOverdueInvoices flips past-due sent invoices to overdue. Meant to be
// hit by an external scheduler.
func (s *Server) MarkOverdueInvoices(c *gin.Context) {
	updated, err := s.invoiceSvc.MarkOverdue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

type updateInvoiceBody struct {
	Notes *string                 `json:"notes"`
	DueAt *time.Time              `json:"due_at"`
	Items []createInvoiceItemBody `json:"items"`
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	var body updateInvoiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items := make([]invoicedomain.CreateInvoiceItem, 0, len(body.Items))
	for _, item := range body.Items {
		entry := invoicedomain.CreateInvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
		}
		if treatmentID, ok := optionalID(item.TreatmentID); ok && treatmentID != 0 {
			entry.TreatmentID = &treatmentID
		}
		items = append(items, entry)
	}

	detail, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		InvoiceID: id,
		Notes:     body.Notes,
		DueAt:     body.DueAt,
		Items:     items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": detail.Invoice, "items": detail.Items})
}

type sendInvoiceBody struct {
	DueAt *time.Time `json:"due_at"`
}

func (s *Server) SendInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	var body sendInvoiceBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	sent, err := s.invoiceSvc.Send(c.Request.Context(), id, body.DueAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": sent})
}

type cancelInvoiceBody struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	var body cancelInvoiceBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	canceled, err := s.invoiceSvc.Cancel(c.Request.Context(), id, body.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": canceled})
}
