// Package domain contains persistence models for patient invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "DRAFT"
	InvoiceStatusSent     InvoiceStatus = "SENT"
	InvoiceStatusPartial  InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid     InvoiceStatus = "PAID"
	InvoiceStatusOverdue  InvoiceStatus = "OVERDUE"
	InvoiceStatusCanceled InvoiceStatus = "CANCELED"
)

// IsSettlement reports whether the status is derived from payment activity.
func (s InvoiceStatus) IsSettlement() bool {
	return s == InvoiceStatusPartial || s == InvoiceStatusPaid
}

// IsTerminal reports whether the status permits no further transitions.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusCanceled
}

// Invoice represents a patient invoice.
type Invoice struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	PatientID   snowflake.ID  `gorm:"not null;index" json:"patient_id"`
	Status      InvoiceStatus `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	TotalAmount int64         `gorm:"not null;default:0" json:"total_amount"`
	FinalAmount int64         `gorm:"not null;default:0" json:"final_amount"`
	PaidAmount  int64         `gorm:"not null;default:0" json:"paid_amount"`
	Currency    string        `gorm:"type:text;not null" json:"currency"`
	Notes       *string       `gorm:"type:text" json:"notes,omitempty"`
	IssuedAt    *time.Time    `gorm:"" json:"issued_at,omitempty"`
	DueAt       *time.Time    `gorm:"" json:"due_at,omitempty"`
	CanceledAt  *time.Time    `gorm:"" json:"canceled_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Balance returns the amount still owed on the invoice.
func (i Invoice) Balance() int64 {
	balance := i.FinalAmount - i.PaidAmount
	if balance < 0 {
		return 0
	}
	return balance
}

// InvoiceItem represents a line on an invoice.
type InvoiceItem struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	Description string        `gorm:"type:text" json:"description"`
	Quantity    int64         `gorm:"not null" json:"quantity"`
	UnitAmount  int64         `gorm:"not null" json:"unit_amount"`
	Amount      int64         `gorm:"not null" json:"amount"`
	TreatmentID *snowflake.ID `gorm:"index" json:"treatment_id,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// DeriveStatus recomputes the lifecycle status from settlement amounts.
//
// Canceled invoices never leave that state. A fully covered non-zero
// balance means paid, any positive payment means partial, and when no
// payment remains the invoice falls back to its prior non-settlement
// status (sent when the prior status was itself settlement-derived).
func DeriveStatus(current InvoiceStatus, finalAmount, paidAmount int64) InvoiceStatus {
	if current == InvoiceStatusCanceled {
		return InvoiceStatusCanceled
	}
	if finalAmount > 0 && paidAmount >= finalAmount {
		return InvoiceStatusPaid
	}
	if paidAmount > 0 {
		return InvoiceStatusPartial
	}
	if current.IsSettlement() {
		return InvoiceStatusSent
	}
	return current
}

// InvoiceCursor is the keyset position for invoice listings.
type InvoiceCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	PatientID snowflake.ID
	Status    InvoiceStatus
	Cursor    *InvoiceCursor
	Limit     int
}
