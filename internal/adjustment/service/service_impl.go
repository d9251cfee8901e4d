package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	adjustmentdomain "github.com/dentaops/denta/internal/adjustment/domain"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/internal/clock"
	invoicedomain "github.com/dentaops/denta/internal/invoice/domain"
	obsmetrics "github.com/dentaops/denta/internal/observability/metrics"
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
	Repo        adjustmentdomain.Repository
	InvoiceRepo invoicedomain.Repository
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	auditSvc    auditdomain.Service
	repo        adjustmentdomain.Repository
	invoiceRepo invoicedomain.Repository
	obsMetrics  *obsmetrics.Metrics
}

func NewService(p Params) adjustmentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("adjustment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		auditSvc:    p.AuditSvc,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req adjustmentdomain.CreateAdjustmentRequest) (adjustmentdomain.InvoiceAdjustment, error) {
	if !req.Type.Valid() {
		return adjustmentdomain.InvoiceAdjustment{}, adjustmentdomain.ErrInvalidType
	}
	if err := validateAmount(req.Type, req.Amount); err != nil {
		return adjustmentdomain.InvoiceAdjustment{}, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return adjustmentdomain.InvoiceAdjustment{}, adjustmentdomain.ErrReasonMissing
	}

	var adjustment adjustmentdomain.InvoiceAdjustment
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

		now := s.clock.Now()
		adjustment = adjustmentdomain.InvoiceAdjustment{
			ID:        s.genID.Generate(),
			InvoiceID: invoice.ID,
			Type:      req.Type,
			Amount:    req.Amount,
			Reason:    reason,
			CreatedBy: normalizeText(req.CreatedBy),
			CreatedAt: now,
		}
		if err := s.repo.Insert(ctx, tx, &adjustment); err != nil {
			return err
		}

		invoice.FinalAmount = adjustment.Apply(invoice.FinalAmount)

		// A reduction that fully covers the remaining balance closes the
		// invoice, but a later increase never reopens a paid invoice.
		if invoice.PaidAmount >= invoice.FinalAmount {
			invoice.Status = invoicedomain.InvoiceStatusPaid
		}
		invoice.UpdatedAt = now
		return s.invoiceRepo.Update(ctx, tx, invoice)
	})
	if err != nil {
		return adjustmentdomain.InvoiceAdjustment{}, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordAdjustment(ctx, string(adjustment.Type))
	}
	s.writeAuditLog(ctx, "adjustment.applied", adjustment.ID, map[string]any{
		"invoice_id": adjustment.InvoiceID.String(),
		"type":       string(adjustment.Type),
		"amount":     adjustment.Amount,
	})
	return adjustment, nil
}

func (s *Service) List(ctx context.Context, invoiceID snowflake.ID) ([]adjustmentdomain.InvoiceAdjustment, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return s.repo.ListByInvoice(ctx, s.db, invoiceID)
}

func validateAmount(adjustmentType adjustmentdomain.AdjustmentType, amount int64) error {
	if adjustmentType == adjustmentdomain.AdjustmentTypeCorrection {
		if amount == 0 {
			return adjustmentdomain.ErrInvalidAmount
		}
		return nil
	}
	if amount <= 0 {
		return adjustmentdomain.ErrInvalidAmount
	}
	return nil
}

func (s *Service) writeAuditLog(ctx context.Context, action string, adjustmentID snowflake.ID, metadata map[string]any) {
	resourceID := adjustmentID.String()
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, "adjustment", &resourceID, metadata); err != nil {
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
