package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/pkg/db/pagination"
)

type CreatePaymentRequest struct {
	InvoiceID     snowflake.ID  `json:"invoice_id"`
	InstallmentID *snowflake.ID `json:"installment_id,omitempty"`
	Amount        int64         `json:"amount"`
	Method        string        `json:"method"`
	Reference     *string       `json:"reference,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	ReceivedAt    *time.Time    `json:"received_at,omitempty"`
}

type RefundPaymentRequest struct {
	PaymentID snowflake.ID `json:"-"`
	Reason    string       `json:"reason"`
}

type ListPaymentRequest struct {
	pagination.Pagination
	InvoiceID snowflake.ID
	Method    string
	Refunded  *bool
}

type ListPaymentResponse struct {
	pagination.PageInfo
	Payments []Payment `json:"payments"`
}

type Service interface {
	Create(ctx context.Context, req CreatePaymentRequest) (Payment, error)
	Refund(ctx context.Context, req RefundPaymentRequest) (Payment, error)
	GetByID(ctx context.Context, id snowflake.ID) (Payment, error)
	List(ctx context.Context, req ListPaymentRequest) (ListPaymentResponse, error)
}

var (
	ErrPaymentNotFound  = errors.New("payment_not_found")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidMethod    = errors.New("invalid_method")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
