// Package domain contains persistence models for the payment ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Payment records money received against an invoice. Rows are never
// deleted; refunds flag the row and reverse the invoice settlement.
type Payment struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceID     snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	InstallmentID *snowflake.ID `gorm:"index" json:"installment_id,omitempty"`
	Amount        int64         `gorm:"not null" json:"amount"`
	Method        string        `gorm:"type:text;not null" json:"method"`
	Reference     *string       `gorm:"type:text" json:"reference,omitempty"`
	Notes         *string       `gorm:"type:text" json:"notes,omitempty"`
	IsRefunded    bool          `gorm:"not null;default:false" json:"is_refunded"`
	RefundReason  *string       `gorm:"type:text" json:"refund_reason,omitempty"`
	RefundedAt    *time.Time    `gorm:"" json:"refunded_at,omitempty"`
	ReceivedAt    time.Time     `gorm:"not null" json:"received_at"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// PaymentCursor is the keyset position for payment listings.
type PaymentCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows payment listings.
type ListFilter struct {
	InvoiceID snowflake.ID
	Method    string
	Refunded  *bool
	Cursor    *PaymentCursor
	Limit     int
}
