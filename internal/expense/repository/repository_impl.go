package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/expense/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, expense *domain.Expense) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO expenses (
			id, category, amount, description, incurred_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID,
		expense.Category,
		expense.Amount,
		expense.Description,
		expense.IncurredAt,
		expense.CreatedAt,
		expense.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Expense, error) {
	var item domain.Expense
	err := db.WithContext(ctx).Raw(
		`SELECT id, category, amount, description, incurred_at, created_at, updated_at
		 FROM expenses
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Expense, error) {
	var expenses []domain.Expense
	stmt := db.WithContext(ctx).Model(&domain.Expense{})

	if category := strings.TrimSpace(filter.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("incurred_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("incurred_at <= ?", filter.EndAt.UTC())
	}

	if err := stmt.Order("incurred_at desc, id desc").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}
