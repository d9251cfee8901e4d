package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/internal/clock"
	invoicedomain "github.com/dentaops/denta/internal/invoice/domain"
	invoicerepo "github.com/dentaops/denta/internal/invoice/repository"
	invoiceservice "github.com/dentaops/denta/internal/invoice/service"
	paymentdomain "github.com/dentaops/denta/internal/payment/domain"
	paymentrepo "github.com/dentaops/denta/internal/payment/repository"
	paymentservice "github.com/dentaops/denta/internal/payment/service"
	plandomain "github.com/dentaops/denta/internal/paymentplan/domain"
	planrepo "github.com/dentaops/denta/internal/paymentplan/repository"
	planservice "github.com/dentaops/denta/internal/paymentplan/service"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type noopAuditService struct{}

func (noopAuditService) AuditLog(ctx context.Context, actorType string, actorID *string, action string, resourceType string, resourceID *string, metadata map[string]any) error {
	return nil
}

func (noopAuditService) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type billingEnv struct {
	db         *gorm.DB
	clk        *clock.FakeClock
	invoiceSvc invoicedomain.Service
	paymentSvc paymentdomain.Service
	planSvc    plandomain.Service
}

func setupBilling(t *testing.T) *billingEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_payment_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	// SQLite has no FOR UPDATE; strip the clause before execution.
	rewrite := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	if err := db.Callback().Query().Before("gorm:query").Register("sqlite_strip_for_update", rewrite); err != nil {
		t.Fatalf("register query callback: %v", err)
	}
	if err := db.Callback().Row().Before("gorm:row").Register("sqlite_strip_for_update_row", rewrite); err != nil {
		t.Fatalf("register row callback: %v", err)
	}

	schema := []string{
		`CREATE TABLE invoices (
			id BIGINT PRIMARY KEY,
			patient_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'DRAFT',
			total_amount BIGINT NOT NULL DEFAULT 0,
			final_amount BIGINT NOT NULL DEFAULT 0,
			paid_amount BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'USD',
			notes TEXT,
			issued_at TIMESTAMP,
			due_at TIMESTAMP,
			canceled_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE invoice_items (
			id BIGINT PRIMARY KEY,
			invoice_id BIGINT NOT NULL,
			description TEXT NOT NULL,
			quantity BIGINT NOT NULL DEFAULT 1,
			unit_amount BIGINT NOT NULL DEFAULT 0,
			amount BIGINT NOT NULL DEFAULT 0,
			treatment_id BIGINT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			invoice_id BIGINT NOT NULL,
			installment_id BIGINT,
			amount BIGINT NOT NULL,
			method TEXT NOT NULL,
			reference TEXT,
			notes TEXT,
			is_refunded BOOLEAN NOT NULL DEFAULT FALSE,
			refund_reason TEXT,
			refunded_at TIMESTAMP,
			received_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE payment_plans (
			id BIGINT PRIMARY KEY,
			invoice_id BIGINT NOT NULL,
			patient_id BIGINT NOT NULL,
			total_amount BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			notes TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE payment_plan_installments (
			id BIGINT PRIMARY KEY,
			plan_id BIGINT NOT NULL,
			sequence INT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			paid_amount BIGINT NOT NULL DEFAULT 0,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			due_at TIMESTAMP NOT NULL,
			paid_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}

	node, err := snowflake.NewNode(21)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
	auditSvc := noopAuditService{}
	invoiceRepo := invoicerepo.Provide()

	invoiceSvc := invoiceservice.NewService(invoiceservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		AuditSvc: auditSvc,
		Repo:     invoiceRepo,
	})
	planSvc := planservice.NewService(planservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		AuditSvc:    auditSvc,
		Repo:        planrepo.Provide(),
		InvoiceRepo: invoiceRepo,
	})
	paymentSvc := paymentservice.NewService(paymentservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		AuditSvc:    auditSvc,
		PlanSvc:     planSvc,
		Repo:        paymentrepo.Provide(),
		InvoiceRepo: invoiceRepo,
	})

	return &billingEnv{
		db:         db,
		clk:        clk,
		invoiceSvc: invoiceSvc,
		paymentSvc: paymentSvc,
		planSvc:    planSvc,
	}
}

func (e *billingEnv) sentInvoice(t *testing.T, amount int64) invoicedomain.Invoice {
	t.Helper()

	detail, err := e.invoiceSvc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		PatientID: 5001,
		Currency:  "USD",
		Items:     []invoicedomain.CreateInvoiceItem{{Description: "Treatment", UnitAmount: amount}},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	sent, err := e.invoiceSvc.Send(context.Background(), detail.Invoice.ID, nil)
	if err != nil {
		t.Fatalf("send invoice: %v", err)
	}
	return sent
}

func (e *billingEnv) invoiceStatus(t *testing.T, id snowflake.ID) (invoicedomain.InvoiceStatus, int64) {
	t.Helper()

	detail, err := e.invoiceSvc.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	return detail.Invoice.Status, detail.Invoice.PaidAmount
}

func TestPartialThenFullPaymentSettlesInvoice(t *testing.T) {
	ctx := context.Background()
	env := setupBilling(t)
	invoice := env.sentInvoice(t, 10000)

	if _, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    4000,
		Method:    "cash",
	}); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	status, paid := env.invoiceStatus(t, invoice.ID)
	if status != invoicedomain.InvoiceStatusPartial || paid != 4000 {
		t.Fatalf("expected PARTIAL/4000, got %s/%d", status, paid)
	}

	if _, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    6000,
		Method:    "card",
	}); err != nil {
		t.Fatalf("second payment: %v", err)
	}
	status, paid = env.invoiceStatus(t, invoice.ID)
	if status != invoicedomain.InvoiceStatusPaid || paid != 10000 {
		t.Fatalf("expected PAID/10000, got %s/%d", status, paid)
	}
}

func TestOverpaymentIsAccepted(t *testing.T) {
	ctx := context.Background()
	env := setupBilling(t)
	invoice := env.sentInvoice(t, 10000)

	payment, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    15000,
		Method:    "insurance",
	})
	if err != nil {
		t.Fatalf("overpayment rejected: %v", err)
	}
	if payment.Amount != 15000 {
		t.Fatalf("expected stored amount 15000, got %d", payment.Amount)
	}

	status, paid := env.invoiceStatus(t, invoice.ID)
	if status != invoicedomain.InvoiceStatusPaid || paid != 15000 {
		t.Fatalf("expected PAID/15000, got %s/%d", status, paid)
	}
}

func TestPaymentOnCanceledInvoiceRejected(t *testing.T) {
	ctx := context.Background()
	env := setupBilling(t)
	invoice := env.sentInvoice(t, 10000)

	if _, err := env.invoiceSvc.Cancel(ctx, invoice.ID, "duplicate"); err != nil {
		t.Fatalf("cancel invoice: %v", err)
	}

	_, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    1000,
		Method:    "cash",
	})
	if err != invoicedomain.ErrInvoiceCanceled {
		t.Fatalf("expected ErrInvoiceCanceled, got %v", err)
	}
}

func TestPaymentValidation(t *testing.T) {
	ctx := context.Background()
	env := setupBilling(t)
	invoice := env.sentInvoice(t, 10000)

	if _, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    0,
		Method:    "cash",
	}); err != paymentdomain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if _, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    1000,
		Method:    "  ",
	}); err != paymentdomain.ErrInvalidMethod {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}

	if _, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: 99999,
		Amount:    1000,
		Method:    "cash",
	}); err != invoicedomain.ErrInvoiceNotFound {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}

func TestRefundReopensInvoice(t *testing.T) {
	ctx := context.Background()
	env := setupBilling(t)
	invoice := env.sentInvoice(t, 10000)

	payment, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    10000,
		Method:    "card",
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	status, _ := env.invoiceStatus(t, invoice.ID)
	if status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected PAID before refund, got %s", status)
	}

	refunded, err := env.paymentSvc.Refund(ctx, paymentdomain.RefundPaymentRequest{
		PaymentID: payment.ID,
		Reason:    "billing error",
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !refunded.IsRefunded || refunded.RefundedAt == nil {
		t.Fatalf("expected refund flags to be set")
	}

	status, paid := env.invoiceStatus(t, invoice.ID)
	if status != invoicedomain.InvoiceStatusSent || paid != 0 {
		t.Fatalf("expected SENT/0 after refund, got %s/%d", status, paid)
	}
}

func TestRefundIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := setupBilling(t)
	invoice := env.sentInvoice(t, 10000)

	payment, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID: invoice.ID,
		Amount:    6000,
		Method:    "cash",
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	first, err := env.paymentSvc.Refund(ctx, paymentdomain.RefundPaymentRequest{PaymentID: payment.ID, Reason: "wrong invoice"})
	if err != nil {
		t.Fatalf("first refund: %v", err)
	}
	second, err := env.paymentSvc.Refund(ctx, paymentdomain.RefundPaymentRequest{PaymentID: payment.ID, Reason: "retry"})
	if err != nil {
		t.Fatalf("second refund: %v", err)
	}
	if !second.IsRefunded {
		t.Fatalf("expected refunded payment on retry")
	}
	if second.RefundReason == nil || *second.RefundReason != *first.RefundReason {
		t.Fatalf("expected retry to return stored refund unchanged")
	}

	// Paid amount is only reversed once.
	_, paid := env.invoiceStatus(t, invoice.ID)
	if paid != 0 {
		t.Fatalf("expected paid 0 after idempotent refund, got %d", paid)
	}
}

func TestInstallmentPaymentSettlesPlan(t *testing.T) {
	ctx := context.Background()
	env := setupBilling(t)
	invoice := env.sentInvoice(t, 10000)

	detail, err := env.planSvc.Create(ctx, plandomain.CreatePlanRequest{
		InvoiceID: invoice.ID,
		Installments: []plandomain.CreateInstallmentInput{
			{Amount: 5000, DueAt: env.clk.Now().Add(30 * 24 * time.Hour)},
			{Amount: 5000, DueAt: env.clk.Now().Add(60 * 24 * time.Hour)},
		},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	first := detail.Installments[0]
	second := detail.Installments[1]

	if _, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID:     invoice.ID,
		InstallmentID: &first.ID,
		Amount:        5000,
		Method:        "cash",
	}); err != nil {
		t.Fatalf("first installment payment: %v", err)
	}

	mid, err := env.planSvc.GetByID(ctx, detail.Plan.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if mid.Plan.Status != plandomain.PlanStatusActive {
		t.Fatalf("expected plan still active, got %s", mid.Plan.Status)
	}
	if !mid.Installments[0].IsPaid || mid.Installments[0].PaidAt == nil {
		t.Fatalf("expected first installment settled")
	}
	if mid.Installments[1].IsPaid {
		t.Fatalf("second installment should be unpaid")
	}

	if _, err := env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID:     invoice.ID,
		InstallmentID: &second.ID,
		Amount:        5000,
		Method:        "cash",
	}); err != nil {
		t.Fatalf("second installment payment: %v", err)
	}

	done, err := env.planSvc.GetByID(ctx, detail.Plan.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if done.Plan.Status != plandomain.PlanStatusCompleted {
		t.Fatalf("expected completed plan, got %s", done.Plan.Status)
	}

	status, paid := env.invoiceStatus(t, invoice.ID)
	if status != invoicedomain.InvoiceStatusPaid || paid != 10000 {
		t.Fatalf("expected PAID/10000, got %s/%d", status, paid)
	}
}

func TestInstallmentFromAnotherInvoiceRejected(t *testing.T) {
	ctx := context.Background()
	env := setupBilling(t)
	invoiceA := env.sentInvoice(t, 10000)
	invoiceB := env.sentInvoice(t, 8000)

	detail, err := env.planSvc.Create(ctx, plandomain.CreatePlanRequest{
		InvoiceID: invoiceA.ID,
		Installments: []plandomain.CreateInstallmentInput{
			{Amount: 10000, DueAt: env.clk.Now().Add(30 * 24 * time.Hour)},
		},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	_, err = env.paymentSvc.Create(ctx, paymentdomain.CreatePaymentRequest{
		InvoiceID:     invoiceB.ID,
		InstallmentID: &detail.Installments[0].ID,
		Amount:        1000,
		Method:        "cash",
	})
	if err != plandomain.ErrInstallmentMismatch {
		t.Fatalf("expected ErrInstallmentMismatch, got %v", err)
	}

	// The rejected payment must not leave settlement state behind.
	_, paid := env.invoiceStatus(t, invoiceB.ID)
	if paid != 0 {
		t.Fatalf("expected paid 0 after rolled back payment, got %d", paid)
	}
}
