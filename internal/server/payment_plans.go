package server

import (
	"net/http"
	"strings"
	"time"

	plandomain "github.com/dentaops/denta/internal/paymentplan/domain"
	"github.com/gin-gonic/gin"
)

type createPlanInstallmentBody struct {
	Amount int64     `json:"amount"`
	DueAt  time.Time `json:"due_at"`
}

type createPaymentPlanBody struct {
	InvoiceID    string                      `json:"invoice_id"`
	Notes        *string                     `json:"notes"`
	Installments []createPlanInstallmentBody `json:"installments"`
}

func (s *Server) CreatePaymentPlan(c *gin.Context) {
	var body createPaymentPlanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceID, ok := optionalID(body.InvoiceID)
	if !ok || invoiceID == 0 {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	installments := make([]plandomain.CreateInstallmentInput, 0, len(body.Installments))
	for _, inst := range body.Installments {
		installments = append(installments, plandomain.CreateInstallmentInput{
			Amount: inst.Amount,
			DueAt:  inst.DueAt,
		})
	}

	detail, err := s.planSvc.Create(c.Request.Context(), plandomain.CreatePlanRequest{
		InvoiceID:    invoiceID,
		Notes:        body.Notes,
		Installments: installments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": detail.Plan, "installments": detail.Installments})
}

func (s *Server) GetPaymentPlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_plan_id", "invalid payment plan id"))
		return
	}

	detail, err := s.planSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": detail.Plan, "installments": detail.Installments})
}

func (s *Server) ListPaymentPlans(c *gin.Context) {
	var query struct {
		PatientID string `form:"patient_id"`
		InvoiceID string `form:"invoice_id"`
		Status    string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patientID, ok := optionalID(query.PatientID)
	if !ok {
		AbortWithError(c, newValidationError("patient_id", "invalid_patient", "invalid patient id"))
		return
	}
	invoiceID, ok := optionalID(query.InvoiceID)
	if !ok {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice id"))
		return
	}

	plans, err := s.planSvc.List(c.Request.Context(), plandomain.ListPlanRequest{
		PatientID: patientID,
		InvoiceID: invoiceID,
		Status:    plandomain.PlanStatus(strings.ToUpper(strings.TrimSpace(query.Status))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (s *Server) CancelPaymentPlan(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_plan_id", "invalid payment plan id"))
		return
	}

	canceled, err := s.planSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": canceled})
}

func (s *Server) ListInstallments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_plan_id", "invalid payment plan id"))
		return
	}

	installments, err := s.planSvc.ListInstallments(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": installments})
}

type addInstallmentBody struct {
	Amount int64     `json:"amount"`
	DueAt  time.Time `json:"due_at"`
}

func (s *Server) CreateInstallment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		AbortWithError(c, newValidationError("id", "invalid_plan_id", "invalid payment plan id"))
		return
	}

	var body addInstallmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	installment, err := s.planSvc.AddInstallment(c.Request.Context(), plandomain.AddInstallmentRequest{
		PlanID: id,
		Amount: body.Amount,
		DueAt:  body.DueAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"installment": installment})
}
