package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, plan *PaymentPlan, installments []Installment) error
	InsertInstallment(ctx context.Context, db *gorm.DB, installment *Installment) error
	FindPlanByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentPlan, error)
	FindPlanByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentPlan, error)
	FindActivePlanByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (*PaymentPlan, error)
	FindInstallmentByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Installment, error)
	FindInstallments(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]Installment, error)
	List(ctx context.Context, db *gorm.DB, filter ListPlanRequest) ([]PaymentPlan, error)
	UpdateInstallment(ctx context.Context, db *gorm.DB, installment *Installment) error
	UpdatePlan(ctx context.Context, db *gorm.DB, plan *PaymentPlan) error
	CountUnpaidInstallments(ctx context.Context, db *gorm.DB, planID snowflake.ID) (int64, error)
}
