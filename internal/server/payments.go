package server

import (
	"net/http"
	"strings"
	"time"

	paymentdomain "github.com/dentaops/denta/internal/payment/domain"
	"github.com/dentaops/denta/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type createPaymentBody struct {
	InvoiceID     string     `json:"invoice_id"`
	InstallmentID string     `json:"installment_id"`
	Amount        int64      `json:"amount"`
	Method        string     `json:"method"`
	Reference     *string    `json:"reference"`
	Notes         *string    `json:"notes"`
	ReceivedAt    *time.Time `json:"received_at"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	var body createPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceID, ok := optionalID(body.InvoiceID)
	if !ok || invoiceID == 0 {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	req := paymentdomain.CreatePaymentRequest{
		InvoiceID:  invoiceID,
		Amount:     body.Amount,
		Method:     body.Method,
		Reference:  body.Reference,
		Notes:      body.Notes,
		ReceivedAt: body.ReceivedAt,
	}
	if installmentID, ok := optionalID(body.InstallmentID); !ok {
		AbortWithError(c, newValidationError("installment_id", "invalid_installment", "invalid installment id"))
		return
	} else if installmentID != 0 {
		req.InstallmentID = &installmentID
	}

	created, err := s.paymentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": created})
}

func (s *Server) GetPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_payment_id", "invalid payment id"))
		return
	}

	found, err := s.paymentSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": found})
}

type refundPaymentBody struct {
	Reason string `json:"reason"`
}

func (s *Server) RefundPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_payment_id", "invalid payment id"))
		return
	}

	var body refundPaymentBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	refunded, err := s.paymentSvc.Refund(c.Request.Context(), paymentdomain.RefundPaymentRequest{
		PaymentID: id,
		Reason:    body.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": refunded})
}

func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size"`
		InvoiceID string `form:"invoice_id"`
		Method    string `form:"method"`
		Refunded  *bool  `form:"refunded"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceID, ok := optionalID(query.InvoiceID)
	if !ok {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), paymentdomain.ListPaymentRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		InvoiceID: invoiceID,
		Method:    strings.ToLower(strings.TrimSpace(query.Method)),
		Refunded:  query.Refunded,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Payments, "page_info": resp.PageInfo})
}
