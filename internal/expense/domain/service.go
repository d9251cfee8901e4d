package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateExpenseRequest struct {
	Category    string     `json:"category"`
	Amount      int64      `json:"amount"`
	Description *string    `json:"description,omitempty"`
	IncurredAt  *time.Time `json:"incurred_at,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateExpenseRequest) (Expense, error)
	GetByID(ctx context.Context, id snowflake.ID) (Expense, error)
	List(ctx context.Context, filter ListFilter) ([]Expense, error)
}

var (
	ErrExpenseNotFound = errors.New("expense_not_found")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrInvalidAmount   = errors.New("invalid_amount")
)
