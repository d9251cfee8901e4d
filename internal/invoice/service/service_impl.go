package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/internal/clock"
	invoicedomain "github.com/dentaops/denta/internal/invoice/domain"
	"github.com/dentaops/denta/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPaymentTerm = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuditSvc auditdomain.Service
	Repo     invoicedomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	auditSvc auditdomain.Service
	repo     invoicedomain.Repository
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		auditSvc: p.AuditSvc,
		repo:     p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.InvoiceDetail, error) {
	if req.PatientID == 0 {
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrInvalidPatient
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrInvalidCurrency
	}
	if len(req.Items) == 0 {
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrItemsRequired
	}

	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:        s.genID.Generate(),
		PatientID: req.PatientID,
		Status:    invoicedomain.InvoiceStatusDraft,
		Currency:  currency,
		Notes:     normalizeNotes(req.Notes),
		DueAt:     req.DueAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	items, total, err := s.buildItems(invoice.ID, req.Items, now)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	invoice.TotalAmount = total
	invoice.FinalAmount = total

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &invoice, items)
	}); err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	s.writeAuditLog(ctx, "invoice.created", invoice.ID, map[string]any{
		"patient_id":   invoice.PatientID.String(),
		"total_amount": invoice.TotalAmount,
		"currency":     invoice.Currency,
		"items":        len(items),
	})

	return invoicedomain.InvoiceDetail{Invoice: invoice, Items: items}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (invoicedomain.InvoiceDetail, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	if invoice == nil {
		return invoicedomain.InvoiceDetail{}, invoicedomain.ErrInvoiceNotFound
	}

	items, err := s.repo.FindItems(ctx, s.db, invoice.ID)
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}
	return invoicedomain.InvoiceDetail{Invoice: *invoice, Items: items}, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	var cursor *invoicedomain.InvoiceCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := decodeCursor(req.PageToken)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidPageToken
		}
		cursor = decoded
	}

	pageSize := req.Limit()

	items, err := s.repo.List(ctx, s.db, invoicedomain.ListFilter{
		PatientID: req.PatientID,
		Status:    req.Status,
		Cursor:    cursor,
		Limit:     pageSize,
	})
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.InvoiceDetail, error) {
	var detail invoicedomain.InvoiceDetail

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusCanceled {
			return invoicedomain.ErrInvoiceCanceled
		}
		if invoice.Status != invoicedomain.InvoiceStatusDraft {
			return invoicedomain.ErrInvoiceNotEditable
		}

		now := s.clock.Now()
		if req.Notes != nil {
			invoice.Notes = normalizeNotes(req.Notes)
		}
		if req.DueAt != nil {
			invoice.DueAt = req.DueAt
		}

		if len(req.Items) > 0 {
			built, total, err := s.buildItems(invoice.ID, req.Items, now)
			if err != nil {
				return err
			}
			if err := s.repo.ReplaceItems(ctx, tx, invoice.ID, built); err != nil {
				return err
			}
			invoice.TotalAmount = total
			invoice.FinalAmount = total
			detail.Items = built
		}

		invoice.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, invoice); err != nil {
			return err
		}

		if detail.Items == nil {
			existing, err := s.repo.FindItems(ctx, tx, invoice.ID)
			if err != nil {
				return err
			}
			detail.Items = existing
		}
		detail.Invoice = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.InvoiceDetail{}, err
	}

	s.writeAuditLog(ctx, "invoice.updated", detail.Invoice.ID, map[string]any{
		"total_amount": detail.Invoice.TotalAmount,
	})
	return detail, nil
}

func (s *Service) Send(ctx context.Context, id snowflake.ID, dueAt *time.Time) (invoicedomain.Invoice, error) {
	var sent invoicedomain.Invoice

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusCanceled {
			return invoicedomain.ErrInvoiceCanceled
		}
		if invoice.Status != invoicedomain.InvoiceStatusDraft {
			return invoicedomain.ErrInvalidTransition
		}

		now := s.clock.Now()
		invoice.Status = invoicedomain.InvoiceStatusSent
		invoice.IssuedAt = &now
		if dueAt != nil {
			invoice.DueAt = dueAt
		}
		if invoice.DueAt == nil {
			due := now.Add(defaultPaymentTerm)
			invoice.DueAt = &due
		}
		invoice.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, invoice); err != nil {
			return err
		}
		sent = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.writeAuditLog(ctx, "invoice.sent", sent.ID, map[string]any{
		"due_at": sent.DueAt,
	})
	return sent, nil
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID, reason string) (invoicedomain.Invoice, error) {
	var canceled invoicedomain.Invoice

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusCanceled {
			return invoicedomain.ErrInvoiceCanceled
		}
		if invoice.Status == invoicedomain.InvoiceStatusPaid {
			return invoicedomain.ErrInvalidTransition
		}

		now := s.clock.Now()
		invoice.Status = invoicedomain.InvoiceStatusCanceled
		invoice.CanceledAt = &now
		invoice.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, invoice); err != nil {
			return err
		}
		canceled = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.writeAuditLog(ctx, "invoice.canceled", canceled.ID, map[string]any{
		"reason": strings.TrimSpace(reason),
	})
	return canceled, nil
}

func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	updated, err := s.repo.MarkOverdue(ctx, s.db, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.log.Info("marked invoices overdue", zap.Int64("count", updated))
	}
	return updated, nil
}

func (s *Service) buildItems(invoiceID snowflake.ID, reqItems []invoicedomain.CreateInvoiceItem, now time.Time) ([]invoicedomain.InvoiceItem, int64, error) {
	items := make([]invoicedomain.InvoiceItem, 0, len(reqItems))
	var total int64
	for _, item := range reqItems {
		description := strings.TrimSpace(item.Description)
		if description == "" {
			return nil, 0, invoicedomain.ErrItemsRequired
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if item.UnitAmount < 0 {
			return nil, 0, invoicedomain.ErrInvalidAmount
		}
		amount := quantity * item.UnitAmount
		total += amount
		items = append(items, invoicedomain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoiceID,
			Description: description,
			Quantity:    quantity,
			UnitAmount:  item.UnitAmount,
			Amount:      amount,
			TreatmentID: item.TreatmentID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if total <= 0 {
		return nil, 0, invoicedomain.ErrInvalidAmount
	}
	return items, total, nil
}

func (s *Service) writeAuditLog(ctx context.Context, action string, invoiceID snowflake.ID, metadata map[string]any) {
	resourceID := invoiceID.String()
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, "invoice", &resourceID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func decodeCursor(token string) (*invoicedomain.InvoiceCursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
	if err != nil {
		return nil, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, invoicedomain.ErrInvalidPageToken
	}
	return &invoicedomain.InvoiceCursor{ID: id, CreatedAt: createdAt}, nil
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
