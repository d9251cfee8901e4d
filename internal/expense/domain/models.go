// Package domain contains persistence models for clinic expenses.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Expense is an operating cost independent of invoicing. It feeds the
// expense report only.
type Expense struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Category    string       `gorm:"type:text;not null" json:"category"`
	Amount      int64        `gorm:"not null" json:"amount"`
	Description *string      `gorm:"type:text" json:"description,omitempty"`
	IncurredAt  time.Time    `gorm:"not null" json:"incurred_at"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Expense) TableName() string { return "expenses" }

// ListFilter narrows expense listings.
type ListFilter struct {
	Category string
	StartAt  *time.Time
	EndAt    *time.Time
}
