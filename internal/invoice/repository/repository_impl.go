package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice, items []domain.InvoiceItem) error {
	if err := db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, patient_id, status, total_amount, final_amount, paid_amount,
			currency, notes, issued_at, due_at, canceled_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.PatientID,
		invoice.Status,
		invoice.TotalAmount,
		invoice.FinalAmount,
		invoice.PaidAmount,
		invoice.Currency,
		invoice.Notes,
		invoice.IssuedAt,
		invoice.DueAt,
		invoice.CanceledAt,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error; err != nil {
		return err
	}

	for i := range items {
		if err := r.insertItem(ctx, db, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) insertItem(ctx context.Context, db *gorm.DB, item *domain.InvoiceItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoice_items (
			id, invoice_id, description, quantity, unit_amount, amount,
			treatment_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.InvoiceID,
		item.Description,
		item.Quantity,
		item.UnitAmount,
		item.Amount,
		item.TreatmentID,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var item domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, patient_id, status, total_amount, final_amount, paid_amount,
			currency, notes, issued_at, due_at, canceled_at, created_at, updated_at
		 FROM invoices
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

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var item domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, patient_id, status, total_amount, final_amount, paid_amount,
			currency, notes, issued_at, due_at, canceled_at, created_at, updated_at
		 FROM invoices
		 WHERE id = ?
		 FOR UPDATE`,
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

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.InvoiceItem, error) {
	var items []domain.InvoiceItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, invoice_id, description, quantity, unit_amount, amount,
			treatment_id, created_at, updated_at
		 FROM invoice_items
		 WHERE invoice_id = ?
		 ORDER BY id asc`,
		invoiceID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})

	if filter.PatientID != 0 {
		stmt = stmt.Where("patient_id = ?", filter.PatientID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
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

	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, total_amount = ?, final_amount = ?, paid_amount = ?,
			notes = ?, issued_at = ?, due_at = ?, canceled_at = ?, updated_at = ?
		 WHERE id = ?`,
		invoice.Status,
		invoice.TotalAmount,
		invoice.FinalAmount,
		invoice.PaidAmount,
		invoice.Notes,
		invoice.IssuedAt,
		invoice.DueAt,
		invoice.CanceledAt,
		invoice.UpdatedAt,
		invoice.ID,
	).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []domain.InvoiceItem) error {
	if err := db.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE invoice_id = ?`,
		invoiceID,
	).Error; err != nil {
		return err
	}
	for i := range items {
		if err := r.insertItem(ctx, db, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, updated_at = ?
		 WHERE status = ? AND due_at IS NOT NULL AND due_at < ?`,
		domain.InvoiceStatusOverdue,
		now,
		domain.InvoiceStatusSent,
		now,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
