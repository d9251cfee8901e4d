// Package domain contains persistence models for invoice adjustments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AdjustmentType classifies how an adjustment moves the invoice balance.
type AdjustmentType string

const (
	AdjustmentTypeDiscount   AdjustmentType = "discount"
	AdjustmentTypeWriteOff   AdjustmentType = "write_off"
	AdjustmentTypeRefund     AdjustmentType = "refund"
	AdjustmentTypeFee        AdjustmentType = "fee"
	AdjustmentTypeCorrection AdjustmentType = "correction"
)

// Valid reports whether the type is a known adjustment kind.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentTypeDiscount, AdjustmentTypeWriteOff, AdjustmentTypeRefund,
		AdjustmentTypeFee, AdjustmentTypeCorrection:
		return true
	default:
		return false
	}
}

// Reduces reports whether the type always lowers what is owed.
// Correction amounts carry their own sign and fees always add.
func (t AdjustmentType) Reduces() bool {
	switch t {
	case AdjustmentTypeDiscount, AdjustmentTypeWriteOff, AdjustmentTypeRefund:
		return true
	default:
		return false
	}
}

// InvoiceAdjustment is an append-only record of a non-payment balance
// change. Rows are never edited or deleted.
type InvoiceAdjustment struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID   `gorm:"not null;index" json:"invoice_id"`
	Type      AdjustmentType `gorm:"column:adjustment_type;type:text;not null" json:"type"`
	Amount    int64          `gorm:"not null" json:"amount"`
	Reason    string         `gorm:"type:text;not null" json:"reason"`
	CreatedBy *string        `gorm:"type:text" json:"created_by,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceAdjustment) TableName() string { return "invoice_adjustments" }

// Apply returns the new final amount after this adjustment.
// Reducing types saturate at zero.
func (a InvoiceAdjustment) Apply(finalAmount int64) int64 {
	if a.Type.Reduces() {
		next := finalAmount - a.Amount
		if next < 0 {
			return 0
		}
		return next
	}
	next := finalAmount + a.Amount
	if next < 0 {
		return 0
	}
	return next
}
