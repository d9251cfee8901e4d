package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type RecordTreatmentRequest struct {
	PatientID   snowflake.ID  `json:"patient_id"`
	DoctorID    snowflake.ID  `json:"doctor_id"`
	InvoiceID   *snowflake.ID `json:"invoice_id,omitempty"`
	Name        string        `json:"name"`
	Amount      int64         `json:"amount"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

type Service interface {
	RecordCompleted(ctx context.Context, req RecordTreatmentRequest) (Treatment, error)
	GetByID(ctx context.Context, id snowflake.ID) (Treatment, error)
	List(ctx context.Context, filter ListFilter) ([]Treatment, error)
}

var (
	ErrTreatmentNotFound = errors.New("treatment_not_found")
	ErrInvalidPatient    = errors.New("invalid_patient")
	ErrInvalidDoctor     = errors.New("invalid_doctor")
	ErrInvalidName       = errors.New("invalid_treatment_name")
	ErrInvalidAmount     = errors.New("invalid_amount")
)
