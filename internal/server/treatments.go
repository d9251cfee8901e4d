package server

import (
	"net/http"
	"time"

	treatmentdomain "github.com/dentaops/denta/internal/treatment/domain"
	"github.com/gin-gonic/gin"
)

type recordTreatmentBody struct {
	PatientID   string     `json:"patient_id"`
	DoctorID    string     `json:"doctor_id"`
	InvoiceID   string     `json:"invoice_id"`
	Name        string     `json:"name"`
	Amount      int64      `json:"amount"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (s *Server) RecordTreatment(c *gin.Context) {
	var body recordTreatmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	patientID, ok := optionalID(body.PatientID)
	if !ok || patientID == 0 {
		AbortWithError(c, newValidationError("patient_id", "invalid_patient", "invalid patient id"))
		return
	}
	doctorID, ok := optionalID(body.DoctorID)
	if !ok || doctorID == 0 {
		AbortWithError(c, newValidationError("doctor_id", "invalid_doctor", "invalid doctor id"))
		return
	}

	req := treatmentdomain.RecordTreatmentRequest{
		PatientID:   patientID,
		DoctorID:    doctorID,
		Name:        body.Name,
		Amount:      body.Amount,
		CompletedAt: body.CompletedAt,
	}
	if invoiceID, ok := optionalID(body.InvoiceID); !ok {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice_id", "invalid invoice id"))
		return
	} else if invoiceID != 0 {
		req.InvoiceID = &invoiceID
	}

	recorded, err := s.treatmentSvc.RecordCompleted(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"treatment": recorded})
}

func (s *Server) ListTreatments(c *gin.Context) {
	patientID, ok := optionalID(c.Query("patient_id"))
	if !ok {
		AbortWithError(c, newValidationError("patient_id", "invalid_patient", "invalid patient id"))
		return
	}
	doctorID, ok := optionalID(c.Query("doctor_id"))
	if !ok {
		AbortWithError(c, newValidationError("doctor_id", "invalid_doctor", "invalid doctor id"))
		return
	}
	start, ok := optionalTime(c.Query("start"))
	if !ok {
		AbortWithError(c, newValidationError("start", "invalid_time", "invalid start time"))
		return
	}
	end, ok := optionalTime(c.Query("end"))
	if !ok {
		AbortWithError(c, newValidationError("end", "invalid_time", "invalid end time"))
		return
	}

	treatments, err := s.treatmentSvc.List(c.Request.Context(), treatmentdomain.ListFilter{
		PatientID: patientID,
		DoctorID:  doctorID,
		StartAt:   start,
		EndAt:     end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": treatments})
}
