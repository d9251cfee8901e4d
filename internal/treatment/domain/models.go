// Package domain contains persistence models for completed treatments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Treatment records completed clinical work priced at completion time.
// The stored amount is never recomputed from the catalog.
type Treatment struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	PatientID   snowflake.ID  `gorm:"not null;index" json:"patient_id"`
	DoctorID    snowflake.ID  `gorm:"not null;index" json:"doctor_id"`
	InvoiceID   *snowflake.ID `gorm:"index" json:"invoice_id,omitempty"`
	Name        string        `gorm:"type:text;not null" json:"name"`
	Amount      int64         `gorm:"not null;default:0" json:"amount"`
	CompletedAt time.Time     `gorm:"not null" json:"completed_at"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Treatment) TableName() string { return "treatments" }

// ListFilter narrows treatment listings.
type ListFilter struct {
	PatientID snowflake.ID
	DoctorID  snowflake.ID
	StartAt   *time.Time
	EndAt     *time.Time
}
