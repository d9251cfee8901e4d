package domain

import (
	"context"
	"errors"
)

// Service exposes read-only financial reports. Reports never mutate
// ledger state and return zero aggregates for empty ranges.
type Service interface {
	RevenueReport(ctx context.Context, rng DateRange) (RevenueReport, error)
	ARAgingReport(ctx context.Context) (ARAgingReport, error)
	ProductionByDoctorReport(ctx context.Context, rng DateRange) (ProductionReport, error)
	ExpenseReport(ctx context.Context, rng DateRange) (ExpenseReport, error)
}

var ErrInvalidRange = errors.New("invalid_time_range")
