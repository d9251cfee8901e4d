package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/internal/clock"
	treatmentdomain "github.com/dentaops/denta/internal/treatment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuditSvc auditdomain.Service
	Repo     treatmentdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	auditSvc auditdomain.Service
	repo     treatmentdomain.Repository
}

func NewService(p Params) treatmentdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("treatment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		auditSvc: p.AuditSvc,
		repo:     p.Repo,
	}
}

func (s *Service) RecordCompleted(ctx context.Context, req treatmentdomain.RecordTreatmentRequest) (treatmentdomain.Treatment, error) {
	if req.PatientID == 0 {
		return treatmentdomain.Treatment{}, treatmentdomain.ErrInvalidPatient
	}
	if req.DoctorID == 0 {
		return treatmentdomain.Treatment{}, treatmentdomain.ErrInvalidDoctor
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return treatmentdomain.Treatment{}, treatmentdomain.ErrInvalidName
	}
	if req.Amount < 0 {
		return treatmentdomain.Treatment{}, treatmentdomain.ErrInvalidAmount
	}

	now := s.clock.Now()
	completedAt := now
	if req.CompletedAt != nil && !req.CompletedAt.IsZero() {
		completedAt = req.CompletedAt.UTC()
	}

	treatment := treatmentdomain.Treatment{
		ID:          s.genID.Generate(),
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		InvoiceID:   req.InvoiceID,
		Name:        name,
		Amount:      req.Amount,
		CompletedAt: completedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &treatment); err != nil {
		return treatmentdomain.Treatment{}, err
	}

	resourceID := treatment.ID.String()
	if err := s.auditSvc.AuditLog(ctx, "", nil, "treatment.completed", "treatment", &resourceID, map[string]any{
		"doctor_id": treatment.DoctorID.String(),
		"amount":    treatment.Amount,
	}); err != nil {
		s.log.Warn("audit log failed", zap.Error(err))
	}
	return treatment, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (treatmentdomain.Treatment, error) {
	treatment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return treatmentdomain.Treatment{}, err
	}
	if treatment == nil {
		return treatmentdomain.Treatment{}, treatmentdomain.ErrTreatmentNotFound
	}
	return *treatment, nil
}

func (s *Service) List(ctx context.Context, filter treatmentdomain.ListFilter) ([]treatmentdomain.Treatment, error) {
	return s.repo.List(ctx, s.db, filter)
}
