package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, invoice_id, installment_id, amount, method, reference, notes,
			is_refunded, refund_reason, refunded_at, received_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.InvoiceID,
		payment.InstallmentID,
		payment.Amount,
		payment.Method,
		payment.Reference,
		payment.Notes,
		payment.IsRefunded,
		payment.RefundReason,
		payment.RefundedAt,
		payment.ReceivedAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	return r.find(ctx, db, `SELECT id, invoice_id, installment_id, amount, method, reference, notes,
			is_refunded, refund_reason, refunded_at, received_at, created_at, updated_at
		 FROM payments
		 WHERE id = ?
		 LIMIT 1`, id)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	return r.find(ctx, db, `SELECT id, invoice_id, installment_id, amount, method, reference, notes,
			is_refunded, refund_reason, refunded_at, received_at, created_at, updated_at
		 FROM payments
		 WHERE id = ?
		 FOR UPDATE`, id)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, query string, id snowflake.ID) (*domain.Payment, error) {
	var item domain.Payment
	err := db.WithContext(ctx).Raw(query, id).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	stmt := db.WithContext(ctx).Model(&domain.Payment{})

	if filter.InvoiceID != 0 {
		stmt = stmt.Where("invoice_id = ?", filter.InvoiceID)
	}
	if method := strings.TrimSpace(filter.Method); method != "" {
		stmt = stmt.Where("method = ?", method)
	}
	if filter.Refunded != nil {
		stmt = stmt.Where("is_refunded = ?", *filter.Refunded)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) MarkRefunded(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET is_refunded = ?, refund_reason = ?, refunded_at = ?, updated_at = ?
		 WHERE id = ?`,
		payment.IsRefunded,
		payment.RefundReason,
		payment.RefundedAt,
		payment.UpdatedAt,
		payment.ID,
	).Error
}
