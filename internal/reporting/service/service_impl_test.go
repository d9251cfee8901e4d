package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/clock"
	reportingdomain "github.com/dentaops/denta/internal/reporting/domain"
	reportingservice "github.com/dentaops/denta/internal/reporting/service"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type reportingEnv struct {
	db   *gorm.DB
	clk  *clock.FakeClock
	node *snowflake.Node
	svc  reportingdomain.Service
}

func setupReportingEnv(t *testing.T) *reportingEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_reporting_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'doctor',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
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
		`CREATE TABLE invoice_adjustments (
			id BIGINT PRIMARY KEY,
			invoice_id BIGINT NOT NULL,
			adjustment_type TEXT NOT NULL,
			amount BIGINT NOT NULL,
			reason TEXT NOT NULL,
			created_by TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE treatments (
			id BIGINT PRIMARY KEY,
			patient_id BIGINT NOT NULL,
			doctor_id BIGINT NOT NULL,
			invoice_id BIGINT,
			name TEXT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			completed_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE expenses (
			id BIGINT PRIMARY KEY,
			category TEXT NOT NULL,
			amount BIGINT NOT NULL,
			description TEXT,
			incurred_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}

	node, err := snowflake.NewNode(24)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC))
	svc := reportingservice.NewService(reportingservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clk,
	})

	return &reportingEnv{db: db, clk: clk, node: node, svc: svc}
}

func (e *reportingEnv) seedInvoice(t *testing.T, status string, finalAmount, paidAmount int64, issuedAt, dueAt *time.Time) snowflake.ID {
	t.Helper()

	id := e.node.Generate()
	created := e.clk.Now().Add(-120 * 24 * time.Hour)
	if err := e.db.Exec(
		`INSERT INTO invoices (id, patient_id, status, total_amount, final_amount, paid_amount, currency, issued_at, due_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'USD', ?, ?, ?, ?)`,
		id, e.node.Generate(), status, finalAmount, finalAmount, paidAmount, issuedAt, dueAt, created, created,
	).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return id
}

func (e *reportingEnv) seedPayment(t *testing.T, invoiceID snowflake.ID, amount int64, receivedAt time.Time, refunded bool) {
	t.Helper()

	if err := e.db.Exec(
		`INSERT INTO payments (id, invoice_id, amount, method, is_refunded, received_at, created_at, updated_at)
		 VALUES (?, ?, ?, 'cash', ?, ?, ?, ?)`,
		e.node.Generate(), invoiceID, amount, refunded, receivedAt, receivedAt, receivedAt,
	).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
}

func TestRevenueReportBucketsByMonth(t *testing.T) {
	ctx := context.Background()
	env := setupReportingEnv(t)

	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	invoiceA := env.seedInvoice(t, "SENT", 30000, 0, &jan, nil)
	invoiceB := env.seedInvoice(t, "SENT", 20000, 0, &feb, nil)
	env.seedPayment(t, invoiceA, 10000, jan.Add(48*time.Hour), false)
	env.seedPayment(t, invoiceB, 5000, feb.Add(24*time.Hour), false)
	// Refunded payments are excluded from collections.
	env.seedPayment(t, invoiceB, 9999, feb.Add(24*time.Hour), true)

	report, err := env.svc.RevenueReport(ctx, reportingdomain.DateRange{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("revenue report: %v", err)
	}

	if report.TotalRevenue != 50000 {
		t.Fatalf("expected revenue 50000, got %d", report.TotalRevenue)
	}
	if report.TotalCollections != 15000 {
		t.Fatalf("expected collections 15000, got %d", report.TotalCollections)
	}
	if len(report.ByMonth) != 2 {
		t.Fatalf("expected 2 monthly buckets, got %d", len(report.ByMonth))
	}
	if report.ByMonth[0].Month != "2026-01" || report.ByMonth[0].Revenue != 30000 || report.ByMonth[0].Collections != 10000 {
		t.Fatalf("unexpected january bucket: %+v", report.ByMonth[0])
	}
	if report.ByMonth[1].Month != "2026-02" || report.ByMonth[1].Revenue != 20000 || report.ByMonth[1].Collections != 5000 {
		t.Fatalf("unexpected february bucket: %+v", report.ByMonth[1])
	}
}

func TestRevenueReportRejectsInvalidRange(t *testing.T) {
	ctx := context.Background()
	env := setupReportingEnv(t)

	_, err := env.svc.RevenueReport(ctx, reportingdomain.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != reportingdomain.ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestARAgingBucketsPartitionBalances(t *testing.T) {
	ctx := context.Background()
	env := setupReportingEnv(t)
	now := env.clk.Now()

	due := func(daysAgo int) *time.Time {
		d := now.Add(-time.Duration(daysAgo) * 24 * time.Hour)
		return &d
	}

	env.seedInvoice(t, "SENT", 1000, 0, nil, due(-10))      // not yet due: current
	env.seedInvoice(t, "SENT", 2000, 0, nil, due(10))       // current
	env.seedInvoice(t, "OVERDUE", 3000, 0, nil, due(45))    // thirty
	env.seedInvoice(t, "PARTIAL", 5000, 1000, nil, due(75)) // sixty, balance 4000
	env.seedInvoice(t, "OVERDUE", 7000, 0, nil, due(100))   // ninety
	env.seedInvoice(t, "OVERDUE", 9000, 0, nil, due(400))   // over90
	env.seedInvoice(t, "PAID", 9999, 9999, nil, due(400))   // excluded status
	env.seedInvoice(t, "SENT", 500, 500, nil, due(50))      // zero balance excluded

	report, err := env.svc.ARAgingReport(ctx)
	if err != nil {
		t.Fatalf("aging report: %v", err)
	}

	if report.Current != 3000 {
		t.Fatalf("expected current 3000, got %d", report.Current)
	}
	if report.Thirty != 3000 {
		t.Fatalf("expected thirty 3000, got %d", report.Thirty)
	}
	if report.Sixty != 4000 {
		t.Fatalf("expected sixty 4000, got %d", report.Sixty)
	}
	if report.Ninety != 7000 {
		t.Fatalf("expected ninety 7000, got %d", report.Ninety)
	}
	if report.Over90 != 9000 {
		t.Fatalf("expected over90 9000, got %d", report.Over90)
	}

	sum := report.Current + report.Thirty + report.Sixty + report.Ninety + report.Over90
	if sum != report.Total {
		t.Fatalf("buckets must partition the total: %d != %d", sum, report.Total)
	}
}

func TestARAgingFallsBackToIssuedAt(t *testing.T) {
	ctx := context.Background()
	env := setupReportingEnv(t)
	now := env.clk.Now()

	issued := now.Add(-70 * 24 * time.Hour)
	env.seedInvoice(t, "SENT", 4000, 0, &issued, nil)

	report, err := env.svc.ARAgingReport(ctx)
	if err != nil {
		t.Fatalf("aging report: %v", err)
	}
	if report.Sixty != 4000 {
		t.Fatalf("expected issued_at anchor in sixty bucket, got %+v", report)
	}
}

func TestProductionByDoctorReport(t *testing.T) {
	ctx := context.Background()
	env := setupReportingEnv(t)
	now := env.clk.Now()

	drLee := env.node.Generate()
	drCho := env.node.Generate()
	for _, row := range []struct {
		id   snowflake.ID
		name string
	}{{drLee, "Dr. Lee"}, {drCho, "Dr. Cho"}} {
		if err := env.db.Exec(
			"INSERT INTO users (id, name, role, created_at, updated_at) VALUES (?, ?, 'doctor', ?, ?)",
			row.id, row.name, now, now,
		).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	seedTreatment := func(doctorID snowflake.ID, amount int64, completedAt time.Time) {
		if err := env.db.Exec(
			`INSERT INTO treatments (id, patient_id, doctor_id, name, amount, completed_at, created_at, updated_at)
			 VALUES (?, ?, ?, 'Cleaning', ?, ?, ?, ?)`,
			env.node.Generate(), env.node.Generate(), doctorID, amount, completedAt, completedAt, completedAt,
		).Error; err != nil {
			t.Fatalf("seed treatment: %v", err)
		}
	}
	seedTreatment(drLee, 10000, now.Add(-48*time.Hour))
	seedTreatment(drLee, 20000, now.Add(-24*time.Hour))
	seedTreatment(drCho, 5000, now.Add(-24*time.Hour))
	seedTreatment(drCho, 99999, now.Add(-400*24*time.Hour)) // outside the range

	report, err := env.svc.ProductionByDoctorReport(ctx, reportingdomain.DateRange{
		Start: now.Add(-30 * 24 * time.Hour),
		End:   now,
	})
	if err != nil {
		t.Fatalf("production report: %v", err)
	}

	if len(report.Doctors) != 2 {
		t.Fatalf("expected 2 doctors, got %d", len(report.Doctors))
	}
	if report.Doctors[0].DoctorID != drLee || report.Doctors[0].TotalAmount != 30000 || report.Doctors[0].TreatmentCount != 2 {
		t.Fatalf("unexpected top producer: %+v", report.Doctors[0])
	}
	if report.Doctors[0].DoctorName != "Dr. Lee" {
		t.Fatalf("expected joined doctor name, got %q", report.Doctors[0].DoctorName)
	}
	if report.Doctors[1].DoctorID != drCho || report.Doctors[1].TotalAmount != 5000 {
		t.Fatalf("unexpected second producer: %+v", report.Doctors[1])
	}
}

func TestExpenseReportGroupsByCategoryAndMonth(t *testing.T) {
	ctx := context.Background()
	env := setupReportingEnv(t)

	seedExpense := func(category string, amount int64, incurredAt time.Time) {
		if err := env.db.Exec(
			`INSERT INTO expenses (id, category, amount, incurred_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			env.node.Generate(), category, amount, incurredAt, incurredAt, incurredAt,
		).Error; err != nil {
			t.Fatalf("seed expense: %v", err)
		}
	}

	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	seedExpense("supplies", 4000, jan)
	seedExpense("supplies", 2000, feb)
	seedExpense("rent", 10000, jan)

	report, err := env.svc.ExpenseReport(ctx, reportingdomain.DateRange{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expense report: %v", err)
	}

	if report.Total != 16000 {
		t.Fatalf("expected total 16000, got %d", report.Total)
	}
	if len(report.ByCategory) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(report.ByCategory))
	}
	if report.ByCategory[0].Category != "rent" || report.ByCategory[0].Amount != 10000 {
		t.Fatalf("expected rent first by amount, got %+v", report.ByCategory[0])
	}
	if report.ByCategory[1].Category != "supplies" || report.ByCategory[1].Amount != 6000 {
		t.Fatalf("unexpected supplies bucket: %+v", report.ByCategory[1])
	}
	if len(report.ByMonth) != 2 || report.ByMonth[0].Month != "2026-01" || report.ByMonth[0].Amount != 14000 {
		t.Fatalf("unexpected monthly buckets: %+v", report.ByMonth)
	}
}
