package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/adjustment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, adjustment *domain.InvoiceAdjustment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoice_adjustments (
			id, invoice_id, adjustment_type, amount, reason, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		adjustment.ID,
		adjustment.InvoiceID,
		adjustment.Type,
		adjustment.Amount,
		adjustment.Reason,
		adjustment.CreatedBy,
		adjustment.CreatedAt,
	).Error
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.InvoiceAdjustment, error) {
	var adjustments []domain.InvoiceAdjustment
	err := db.WithContext(ctx).Raw(
		`SELECT id, invoice_id, adjustment_type, amount, reason, created_by, created_at
		 FROM invoice_adjustments
		 WHERE invoice_id = ?
		 ORDER BY created_at desc, id desc`,
		invoiceID,
	).Scan(&adjustments).Error
	if err != nil {
		return nil, err
	}
	return adjustments, nil
}
