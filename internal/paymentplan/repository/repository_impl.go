package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/paymentplan/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *domain.PaymentPlan, installments []domain.Installment) error {
	if err := db.WithContext(ctx).Exec(
		`INSERT INTO payment_plans (
			id, invoice_id, patient_id, total_amount, status, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.InvoiceID,
		plan.PatientID,
		plan.TotalAmount,
		plan.Status,
		plan.Notes,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error; err != nil {
		return err
	}

	for i := range installments {
		if err := r.InsertInstallment(ctx, db, &installments[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) InsertInstallment(ctx context.Context, db *gorm.DB, installment *domain.Installment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_plan_installments (
			id, plan_id, sequence, amount, paid_amount, is_paid,
			due_at, paid_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		installment.ID,
		installment.PlanID,
		installment.Sequence,
		installment.Amount,
		installment.PaidAmount,
		installment.IsPaid,
		installment.DueAt,
		installment.PaidAt,
		installment.CreatedAt,
		installment.UpdatedAt,
	).Error
}

func (r *repo) FindPlanByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentPlan, error) {
	return r.findPlan(ctx, db, `SELECT id, invoice_id, patient_id, total_amount, status, notes, created_at, updated_at
		 FROM payment_plans
		 WHERE id = ?
		 LIMIT 1`, id)
}

func (r *repo) FindPlanByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentPlan, error) {
	return r.findPlan(ctx, db, `SELECT id, invoice_id, patient_id, total_amount, status, notes, created_at, updated_at
		 FROM payment_plans
		 WHERE id = ?
		 FOR UPDATE`, id)
}

func (r *repo) FindActivePlanByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (*domain.PaymentPlan, error) {
	return r.findPlan(ctx, db, `SELECT id, invoice_id, patient_id, total_amount, status, notes, created_at, updated_at
		 FROM payment_plans
		 WHERE invoice_id = ? AND status = 'ACTIVE'
		 LIMIT 1`, invoiceID)
}

func (r *repo) findPlan(ctx context.Context, db *gorm.DB, query string, arg any) (*domain.PaymentPlan, error) {
	var item domain.PaymentPlan
	err := db.WithContext(ctx).Raw(query, arg).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindInstallmentByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Installment, error) {
	var item domain.Installment
	err := db.WithContext(ctx).Raw(
		`SELECT id, plan_id, sequence, amount, paid_amount, is_paid,
			due_at, paid_at, created_at, updated_at
		 FROM payment_plan_installments
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

func (r *repo) FindInstallments(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]domain.Installment, error) {
	var items []domain.Installment
	err := db.WithContext(ctx).Raw(
		`SELECT id, plan_id, sequence, amount, paid_amount, is_paid,
			due_at, paid_at, created_at, updated_at
		 FROM payment_plan_installments
		 WHERE plan_id = ?
		 ORDER BY sequence asc`,
		planID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListPlanRequest) ([]domain.PaymentPlan, error) {
	var plans []domain.PaymentPlan
	stmt := db.WithContext(ctx).Model(&domain.PaymentPlan{})

	if filter.PatientID != 0 {
		stmt = stmt.Where("patient_id = ?", filter.PatientID)
	}
	if filter.InvoiceID != 0 {
		stmt = stmt.Where("invoice_id = ?", filter.InvoiceID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	if err := stmt.Order("created_at desc, id desc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) UpdateInstallment(ctx context.Context, db *gorm.DB, installment *domain.Installment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_plan_installments
		 SET paid_amount = ?, is_paid = ?, paid_at = ?, updated_at = ?
		 WHERE id = ?`,
		installment.PaidAmount,
		installment.IsPaid,
		installment.PaidAt,
		installment.UpdatedAt,
		installment.ID,
	).Error
}

func (r *repo) UpdatePlan(ctx context.Context, db *gorm.DB, plan *domain.PaymentPlan) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_plans
		 SET total_amount = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		plan.TotalAmount,
		plan.Status,
		plan.Notes,
		plan.UpdatedAt,
		plan.ID,
	).Error
}

func (r *repo) CountUnpaidInstallments(ctx context.Context, db *gorm.DB, planID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM payment_plan_installments
		 WHERE plan_id = ? AND is_paid = FALSE`,
		planID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
