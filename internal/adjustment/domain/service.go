package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateAdjustmentRequest struct {
	InvoiceID snowflake.ID   `json:"invoice_id"`
	Type      AdjustmentType `json:"type"`
	Amount    int64          `json:"amount"`
	Reason    string         `json:"reason"`
	CreatedBy *string        `json:"created_by,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateAdjustmentRequest) (InvoiceAdjustment, error)
	List(ctx context.Context, invoiceID snowflake.ID) ([]InvoiceAdjustment, error)
}

var (
	ErrInvalidType   = errors.New("invalid_adjustment_type")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrReasonMissing = errors.New("adjustment_reason_required")
)
