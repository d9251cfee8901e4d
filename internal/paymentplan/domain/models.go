// Package domain contains persistence models for patient payment plans.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PlanStatus represents payment plan lifecycle states.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "ACTIVE"
	PlanStatusCompleted PlanStatus = "COMPLETED"
	PlanStatusCanceled  PlanStatus = "CANCELED"
)

// PaymentPlan splits an invoice balance into scheduled installments.
type PaymentPlan struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	PatientID   snowflake.ID `gorm:"not null;index" json:"patient_id"`
	TotalAmount int64        `gorm:"not null;default:0" json:"total_amount"`
	Status      PlanStatus   `gorm:"type:text;not null;default:'ACTIVE'" json:"status"`
	Notes       *string      `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PaymentPlan) TableName() string { return "payment_plans" }

// Installment is one scheduled slice of a payment plan.
type Installment struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	PlanID     snowflake.ID `gorm:"not null;index" json:"plan_id"`
	Sequence   int          `gorm:"not null" json:"sequence"`
	Amount     int64        `gorm:"not null" json:"amount"`
	PaidAmount int64        `gorm:"not null;default:0" json:"paid_amount"`
	IsPaid     bool         `gorm:"not null;default:false" json:"is_paid"`
	DueAt      time.Time    `gorm:"not null" json:"due_at"`
	PaidAt     *time.Time   `gorm:"" json:"paid_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Installment) TableName() string { return "payment_plan_installments" }

// Settled reports whether the covered amount fully covers the installment.
func (i Installment) Settled() bool {
	return i.PaidAmount >= i.Amount
}
