package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/clock"
	expensedomain "github.com/dentaops/denta/internal/expense/domain"
	expenserepo "github.com/dentaops/denta/internal/expense/repository"
	expenseservice "github.com/dentaops/denta/internal/expense/service"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupExpenseService(t *testing.T) (expensedomain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_expense_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Exec(`CREATE TABLE expenses (
		id BIGINT PRIMARY KEY,
		category TEXT NOT NULL,
		amount BIGINT NOT NULL,
		description TEXT,
		incurred_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error; err != nil {
		t.Fatalf("schema exec failed: %v", err)
	}

	node, err := snowflake.NewNode(25)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	svc := expenseservice.NewService(expenseservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  expenserepo.Provide(),
	})
	return svc, clk
}

func TestCreateExpenseNormalizesCategory(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupExpenseService(t)

	expense, err := svc.Create(ctx, expensedomain.CreateExpenseRequest{
		Category: "  Supplies ",
		Amount:   4500,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if expense.Category != "supplies" {
		t.Fatalf("expected lowercased category, got %q", expense.Category)
	}
	if !expense.IncurredAt.Equal(clk.Now()) {
		t.Fatalf("expected incurred_at to default to now, got %v", expense.IncurredAt)
	}

	if _, err := svc.Create(ctx, expensedomain.CreateExpenseRequest{Category: "  ", Amount: 100}); err != expensedomain.ErrInvalidCategory {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := svc.Create(ctx, expensedomain.CreateExpenseRequest{Category: "rent", Amount: 0}); err != expensedomain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestListExpensesFiltersByCategoryAndRange(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupExpenseService(t)

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	jul := clk.Now()
	for _, seed := range []struct {
		category string
		amount   int64
		at       time.Time
	}{
		{"supplies", 1000, jan},
		{"supplies", 2000, jul},
		{"rent", 9000, jul},
	} {
		at := seed.at
		if _, err := svc.Create(ctx, expensedomain.CreateExpenseRequest{
			Category:   seed.category,
			Amount:     seed.amount,
			IncurredAt: &at,
		}); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	expenses, err := svc.List(ctx, expensedomain.ListFilter{Category: "supplies", StartAt: &start})
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	if expenses[0].Amount != 2000 {
		t.Fatalf("expected july supplies expense, got %+v", expenses[0])
	}
}
