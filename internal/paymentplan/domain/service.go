package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateInstallmentInput struct {
	Amount int64     `json:"amount"`
	DueAt  time.Time `json:"due_at"`
}

type CreatePlanRequest struct {
	InvoiceID    snowflake.ID             `json:"invoice_id"`
	Notes        *string                  `json:"notes,omitempty"`
	Installments []CreateInstallmentInput `json:"installments"`
}

type AddInstallmentRequest struct {
	PlanID snowflake.ID `json:"-"`
	Amount int64        `json:"amount"`
	DueAt  time.Time    `json:"due_at"`
}

type PlanDetail struct {
	Plan         PaymentPlan   `json:"plan"`
	Installments []Installment `json:"installments"`
}

type ListPlanRequest struct {
	PatientID snowflake.ID
	InvoiceID snowflake.ID
	Status    PlanStatus
}

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (PlanDetail, error)
	GetByID(ctx context.Context, id snowflake.ID) (PlanDetail, error)
	List(ctx context.Context, req ListPlanRequest) ([]PaymentPlan, error)
	ListInstallments(ctx context.Context, planID snowflake.ID) ([]Installment, error)
	AddInstallment(ctx context.Context, req AddInstallmentRequest) (Installment, error)
	Cancel(ctx context.Context, id snowflake.ID) (PaymentPlan, error)

	// ApplyPayment credits an installment inside the caller's transaction
	// and completes the plan when every installment is settled.
	ApplyPayment(ctx context.Context, tx *gorm.DB, installmentID, invoiceID snowflake.ID, amount int64, now time.Time) (*Installment, error)
}

var (
	ErrPlanNotFound           = errors.New("payment_plan_not_found")
	ErrInstallmentNotFound    = errors.New("installment_not_found")
	ErrInstallmentSumMismatch = errors.New("installment_sum_mismatch")
	ErrInstallmentMismatch    = errors.New("installment_invoice_mismatch")
	ErrInvalidInstallment     = errors.New("invalid_installment")
	ErrPlanNotActive          = errors.New("payment_plan_not_active")
	ErrPlanExists             = errors.New("payment_plan_exists")
	ErrPlanExceedsBalance     = errors.New("payment_plan_exceeds_balance")
)
