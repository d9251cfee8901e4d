package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/internal/clock"
	invoicedomain "github.com/dentaops/denta/internal/invoice/domain"
	plandomain "github.com/dentaops/denta/internal/paymentplan/domain"
	pkgdb "github.com/dentaops/denta/pkg/db"
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
	Repo        plandomain.Repository
	InvoiceRepo invoicedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	auditSvc    auditdomain.Service
	repo        plandomain.Repository
	invoiceRepo invoicedomain.Repository
}

func NewService(p Params) plandomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("paymentplan.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		auditSvc:    p.AuditSvc,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
	}
}

func (s *Service) Create(ctx context.Context, req plandomain.CreatePlanRequest) (plandomain.PlanDetail, error) {
	if len(req.Installments) == 0 {
		return plandomain.PlanDetail{}, plandomain.ErrInvalidInstallment
	}

	var detail plandomain.PlanDetail
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
		balance := invoice.Balance()
		if balance <= 0 {
			return plandomain.ErrPlanExceedsBalance
		}

		existing, err := s.repo.FindActivePlanByInvoice(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return plandomain.ErrPlanExists
		}

		now := s.clock.Now()
		plan := plandomain.PaymentPlan{
			ID:        s.genID.Generate(),
			InvoiceID: invoice.ID,
			PatientID: invoice.PatientID,
			Status:    plandomain.PlanStatusActive,
			Notes:     normalizeNotes(req.Notes),
			CreatedAt: now,
			UpdatedAt: now,
		}

		installments, total, err := s.buildInstallments(plan.ID, req.Installments, now)
		if err != nil {
			return err
		}
		if total != balance {
			return plandomain.ErrInstallmentSumMismatch
		}
		plan.TotalAmount = total

		if err := s.repo.Insert(ctx, tx, &plan, installments); err != nil {
			return err
		}

		detail = plandomain.PlanDetail{Plan: plan, Installments: installments}
		return nil
	})
	if err != nil {
		return plandomain.PlanDetail{}, err
	}

	s.writeAuditLog(ctx, "payment_plan.created", detail.Plan.ID, map[string]any{
		"invoice_id":   detail.Plan.InvoiceID.String(),
		"total_amount": detail.Plan.TotalAmount,
		"installments": len(detail.Installments),
	})
	return detail, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (plandomain.PlanDetail, error) {
	plan, err := s.repo.FindPlanByID(ctx, s.db, id)
	if err != nil {
		return plandomain.PlanDetail{}, err
	}
	if plan == nil {
		return plandomain.PlanDetail{}, plandomain.ErrPlanNotFound
	}

	installments, err := s.repo.FindInstallments(ctx, s.db, plan.ID)
	if err != nil {
		return plandomain.PlanDetail{}, err
	}
	return plandomain.PlanDetail{Plan: *plan, Installments: installments}, nil
}

func (s *Service) List(ctx context.Context, req plandomain.ListPlanRequest) ([]plandomain.PaymentPlan, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) ListInstallments(ctx context.Context, planID snowflake.ID) ([]plandomain.Installment, error) {
	plan, err := s.repo.FindPlanByID(ctx, s.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, plandomain.ErrPlanNotFound
	}
	return s.repo.FindInstallments(ctx, s.db, planID)
}

func (s *Service) AddInstallment(ctx context.Context, req plandomain.AddInstallmentRequest) (plandomain.Installment, error) {
	if req.Amount <= 0 || req.DueAt.IsZero() {
		return plandomain.Installment{}, plandomain.ErrInvalidInstallment
	}

	var added plandomain.Installment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := s.repo.FindPlanByIDForUpdate(ctx, tx, req.PlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return plandomain.ErrPlanNotFound
		}
		if plan.Status != plandomain.PlanStatusActive {
			return plandomain.ErrPlanNotActive
		}

		invoice, err := s.invoiceRepo.FindByIDForUpdate(ctx, tx, plan.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if plan.TotalAmount+req.Amount > invoice.FinalAmount {
			return plandomain.ErrPlanExceedsBalance
		}

		installments, err := s.repo.FindInstallments(ctx, tx, plan.ID)
		if err != nil {
			return err
		}
		sequence := 1
		for _, installment := range installments {
			if installment.Sequence >= sequence {
				sequence = installment.Sequence + 1
			}
		}

		now := s.clock.Now()
		added = plandomain.Installment{
			ID:        s.genID.Generate(),
			PlanID:    plan.ID,
			Sequence:  sequence,
			Amount:    req.Amount,
			DueAt:     req.DueAt.UTC(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.InsertInstallment(ctx, tx, &added); err != nil {
			if pkgdb.IsDuplicateKeyErr(err) {
				return plandomain.ErrInvalidInstallment
			}
			return err
		}

		plan.TotalAmount += req.Amount
		plan.UpdatedAt = now
		return s.repo.UpdatePlan(ctx, tx, plan)
	})
	if err != nil {
		return plandomain.Installment{}, err
	}

	s.writeAuditLog(ctx, "payment_plan.installment_added", added.PlanID, map[string]any{
		"installment_id": added.ID.String(),
		"amount":         added.Amount,
	})
	return added, nil
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (plandomain.PaymentPlan, error) {
	var canceled plandomain.PaymentPlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := s.repo.FindPlanByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if plan == nil {
			return plandomain.ErrPlanNotFound
		}
		if plan.Status != plandomain.PlanStatusActive {
			return plandomain.ErrPlanNotActive
		}

		plan.Status = plandomain.PlanStatusCanceled
		plan.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdatePlan(ctx, tx, plan); err != nil {
			return err
		}
		canceled = *plan
		return nil
	})
	if err != nil {
		return plandomain.PaymentPlan{}, err
	}

	s.writeAuditLog(ctx, "payment_plan.canceled", canceled.ID, nil)
	return canceled, nil
}

func (s *Service) ApplyPayment(ctx context.Context, tx *gorm.DB, installmentID, invoiceID snowflake.ID, amount int64, now time.Time) (*plandomain.Installment, error) {
	if amount <= 0 {
		return nil, plandomain.ErrInvalidInstallment
	}

	installment, err := s.repo.FindInstallmentByIDForUpdate(ctx, tx, installmentID)
	if err != nil {
		return nil, err
	}
	if installment == nil {
		return nil, plandomain.ErrInstallmentNotFound
	}

	plan, err := s.repo.FindPlanByID(ctx, tx, installment.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, plandomain.ErrPlanNotFound
	}
	if plan.InvoiceID != invoiceID {
		return nil, plandomain.ErrInstallmentMismatch
	}
	if plan.Status != plandomain.PlanStatusActive {
		return nil, plandomain.ErrPlanNotActive
	}

	installment.PaidAmount += amount
	installment.UpdatedAt = now
	newlyPaid := false
	if !installment.IsPaid && installment.Settled() {
		installment.IsPaid = true
		paidAt := now
		installment.PaidAt = &paidAt
		newlyPaid = true
	}

	if err := s.repo.UpdateInstallment(ctx, tx, installment); err != nil {
		return nil, err
	}

	if newlyPaid {
		unpaid, err := s.repo.CountUnpaidInstallments(ctx, tx, plan.ID)
		if err != nil {
			return nil, err
		}
		if unpaid == 0 {
			plan.Status = plandomain.PlanStatusCompleted
			plan.UpdatedAt = now
			if err := s.repo.UpdatePlan(ctx, tx, plan); err != nil {
				return nil, err
			}
		}
	}

	return installment, nil
}

func (s *Service) buildInstallments(planID snowflake.ID, inputs []plandomain.CreateInstallmentInput, now time.Time) ([]plandomain.Installment, int64, error) {
	sorted := make([]plandomain.CreateInstallmentInput, len(inputs))
	copy(sorted, inputs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DueAt.Before(sorted[j].DueAt)
	})

	installments := make([]plandomain.Installment, 0, len(sorted))
	var total int64
	for i, input := range sorted {
		if input.Amount <= 0 || input.DueAt.IsZero() {
			return nil, 0, plandomain.ErrInvalidInstallment
		}
		total += input.Amount
		installments = append(installments, plandomain.Installment{
			ID:        s.genID.Generate(),
			PlanID:    planID,
			Sequence:  i + 1,
			Amount:    input.Amount,
			DueAt:     input.DueAt.UTC(),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return installments, total, nil
}

func (s *Service) writeAuditLog(ctx context.Context, action string, planID snowflake.ID, metadata map[string]any) {
	resourceID := planID.String()
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, "payment_plan", &resourceID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
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
