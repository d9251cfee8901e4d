package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/internal/clock"
	invoicedomain "github.com/dentaops/denta/internal/invoice/domain"
	obsmetrics "github.com/dentaops/denta/internal/observability/metrics"
	paymentdomain "github.com/dentaops/denta/internal/payment/domain"
	plandomain "github.com/dentaops/denta/internal/paymentplan/domain"
	"github.com/dentaops/denta/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	AuditSvc    auditdomain.Service
	PlanSvc     plandomain.Service
	Repo        paymentdomain.Repository
	InvoiceRepo invoicedomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	auditSvc    auditdomain.Service
	planSvc     plandomain.Service
	repo        paymentdomain.Repository
	invoiceRepo invoicedomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		auditSvc:    p.AuditSvc,
		planSvc:     p.PlanSvc,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req paymentdomain.CreatePaymentRequest) (paymentdomain.Payment, error) {
	if req.Amount <= 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidAmount
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidMethod
	}

	var payment paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindByIDForUpdate(ctx, tx, req.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusCanceled {
			return invoicedomain.ErrInvoiceCanceled
		}

		// Overpayment is allowed; status saturates at paid.
		now := s.clock.Now()
		receivedAt := now
		if req.ReceivedAt != nil && !req.ReceivedAt.IsZero() {
			receivedAt = req.ReceivedAt.UTC()
		}

		payment = paymentdomain.Payment{
			ID:            s.genID.Generate(),
			InvoiceID:     invoice.ID,
			InstallmentID: req.InstallmentID,
			Amount:        req.Amount,
			Method:        method,
			Reference:     normalizeText(req.Reference),
			Notes:         normalizeText(req.Notes),
			ReceivedAt:    receivedAt,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		invoice.PaidAmount += req.Amount
		invoice.Status = invoicedomain.DeriveStatus(invoice.Status, invoice.FinalAmount, invoice.PaidAmount)
		invoice.UpdatedAt = now
		if err := s.invoiceRepo.Update(ctx, tx, invoice); err != nil {
			return err
		}

		if req.InstallmentID != nil && *req.InstallmentID != 0 {
			if _, err := s.planSvc.ApplyPayment(ctx, tx, *req.InstallmentID, invoice.ID, req.Amount, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPayment(ctx, method)
	}
	s.writeAuditLog(ctx, "payment.received", payment.ID, map[string]any{
		"invoice_id": payment.InvoiceID.String(),
		"amount":     payment.Amount,
		"method":     payment.Method,
	})
	return payment, nil
}

// Refund is idempotent: refunding an already refunded payment returns the
// stored row unchanged. Installment settlement is not reversed.
func (s *Service) Refund(ctx context.Context, req paymentdomain.RefundPaymentRequest) (paymentdomain.Payment, error) {
	var (
		refunded    paymentdomain.Payment
		alreadyDone bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByIDForUpdate(ctx, tx, req.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		if payment.IsRefunded {
			refunded = *payment
			alreadyDone = true
			return nil
		}

		invoice, err := s.invoiceRepo.FindByIDForUpdate(ctx, tx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}

		now := s.clock.Now()
		payment.IsRefunded = true
		payment.RefundedAt = &now
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			payment.RefundReason = &reason
		}
		payment.UpdatedAt = now
		if err := s.repo.MarkRefunded(ctx, tx, payment); err != nil {
			return err
		}

		invoice.PaidAmount -= payment.Amount
		if invoice.PaidAmount < 0 {
			invoice.PaidAmount = 0
		}
		invoice.Status = invoicedomain.DeriveStatus(invoice.Status, invoice.FinalAmount, invoice.PaidAmount)
		invoice.UpdatedAt = now
		if err := s.invoiceRepo.Update(ctx, tx, invoice); err != nil {
			return err
		}

		refunded = *payment
		return nil
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	if !alreadyDone {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordRefund(ctx)
		}
		s.writeAuditLog(ctx, "payment.refunded", refunded.ID, map[string]any{
			"invoice_id": refunded.InvoiceID.String(),
			"amount":     refunded.Amount,
			"reason":     strings.TrimSpace(req.Reason),
		})
	}
	return refunded, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (paymentdomain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrPaymentNotFound
	}
	return *payment, nil
}

func (s *Service) List(ctx context.Context, req paymentdomain.ListPaymentRequest) (paymentdomain.ListPaymentResponse, error) {
	var cursor *paymentdomain.PaymentCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return paymentdomain.ListPaymentResponse{}, paymentdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return paymentdomain.ListPaymentResponse{}, paymentdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return paymentdomain.ListPaymentResponse{}, paymentdomain.ErrInvalidPageToken
		}
		cursor = &paymentdomain.PaymentCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.Limit()

	items, err := s.repo.List(ctx, s.db, paymentdomain.ListFilter{
		InvoiceID: req.InvoiceID,
		Method:    strings.ToLower(strings.TrimSpace(req.Method)),
		Refunded:  req.Refunded,
		Cursor:    cursor,
		Limit:     pageSize,
	})
	if err != nil {
		return paymentdomain.ListPaymentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *paymentdomain.Payment) string {
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

	payments := make([]paymentdomain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}

	resp := paymentdomain.ListPaymentResponse{Payments: payments}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) writeAuditLog(ctx context.Context, action string, paymentID snowflake.ID, metadata map[string]any) {
	resourceID := paymentID.String()
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, "payment", &resourceID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func normalizeText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
