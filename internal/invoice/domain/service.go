package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/pkg/db/pagination"
)

type CreateInvoiceItem struct {
	Description string        `json:"description"`
	Quantity    int64         `json:"quantity"`
	UnitAmount  int64         `json:"unit_amount"`
	TreatmentID *snowflake.ID `json:"treatment_id,omitempty"`
}

type CreateInvoiceRequest struct {
	PatientID snowflake.ID        `json:"patient_id"`
	Currency  string              `json:"currency"`
	Notes     *string             `json:"notes,omitempty"`
	DueAt     *time.Time          `json:"due_at,omitempty"`
	Items     []CreateInvoiceItem `json:"items"`
}

type UpdateInvoiceRequest struct {
	InvoiceID snowflake.ID        `json:"-"`
	Notes     *string             `json:"notes,omitempty"`
	DueAt     *time.Time          `json:"due_at,omitempty"`
	Items     []CreateInvoiceItem `json:"items,omitempty"`
}

type ListInvoiceRequest struct {
	pagination.Pagination
	PatientID snowflake.ID
	Status    InvoiceStatus
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type InvoiceDetail struct {
	Invoice Invoice       `json:"invoice"`
	Items   []InvoiceItem `json:"items"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceDetail, error)
	GetByID(ctx context.Context, id snowflake.ID) (InvoiceDetail, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (InvoiceDetail, error)
	Send(ctx context.Context, id snowflake.ID, dueAt *time.Time) (Invoice, error)
	Cancel(ctx context.Context, id snowflake.ID, reason string) (Invoice, error)
	MarkOverdue(ctx context.Context) (int64, error)
}

var (
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
	ErrInvalidPatient     = errors.New("invalid_patient")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrItemsRequired      = errors.New("invoice_items_required")
	ErrInvalidTransition  = errors.New("invalid_status_transition")
	ErrInvoiceCanceled    = errors.New("invoice_canceled")
	ErrInvoiceNotEditable = errors.New("invoice_not_editable")
	ErrInvalidPageToken   = errors.New("invalid_page_token")
)
