package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/clock"
	expensedomain "github.com/dentaops/denta/internal/expense/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  expensedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  expensedomain.Repository
}

func NewService(p Params) expensedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("expense.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req expensedomain.CreateExpenseRequest) (expensedomain.Expense, error) {
	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		return expensedomain.Expense{}, expensedomain.ErrInvalidCategory
	}
	if req.Amount <= 0 {
		return expensedomain.Expense{}, expensedomain.ErrInvalidAmount
	}

	now := s.clock.Now()
	incurredAt := now
	if req.IncurredAt != nil && !req.IncurredAt.IsZero() {
		incurredAt = req.IncurredAt.UTC()
	}

	expense := expensedomain.Expense{
		ID:          s.genID.Generate(),
		Category:    category,
		Amount:      req.Amount,
		Description: normalizeText(req.Description),
		IncurredAt:  incurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &expense); err != nil {
		return expensedomain.Expense{}, err
	}
	return expense, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (expensedomain.Expense, error) {
	expense, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return expensedomain.Expense{}, err
	}
	if expense == nil {
		return expensedomain.Expense{}, expensedomain.ErrExpenseNotFound
	}
	return *expense, nil
}

func (s *Service) List(ctx context.Context, filter expensedomain.ListFilter) ([]expensedomain.Expense, error) {
	return s.repo.List(ctx, s.db, filter)
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
