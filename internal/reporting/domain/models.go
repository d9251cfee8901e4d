// Package domain contains typed report shapes for the reporting engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DateRange bounds a report query. Zero values mean unbounded.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RevenueMonth is one merged monthly bucket. Months missing on either
// side default to zero.
type RevenueMonth struct {
	Month       string `json:"month"`
	Revenue     int64  `json:"revenue"`
	Collections int64  `json:"collections"`
}

// RevenueReport aggregates billed and collected amounts over a range.
type RevenueReport struct {
	Start            time.Time      `json:"start"`
	End              time.Time      `json:"end"`
	TotalRevenue     int64          `json:"total_revenue"`
	TotalCollections int64          `json:"total_collections"`
	TotalAdjustments int64          `json:"total_adjustments"`
	ByMonth          []RevenueMonth `json:"by_month"`
}

// ARAgingReport buckets unpaid balances by whole days overdue relative
// to the injected clock's today. The buckets partition the outstanding
// total: current [0,30), thirty [30,60), sixty [60,90), ninety
// [90,120), over90 [120,inf). Not-yet-due balances count as current.
type ARAgingReport struct {
	AsOf    time.Time `json:"as_of"`
	Total   int64     `json:"total"`
	Current int64     `json:"current"`
	Thirty  int64     `json:"thirty"`
	Sixty   int64     `json:"sixty"`
	Ninety  int64     `json:"ninety"`
	Over90  int64     `json:"over90"`
}

// DoctorProduction is one row of the production report.
type DoctorProduction struct {
	DoctorID       snowflake.ID `json:"doctor_id"`
	DoctorName     string       `json:"doctor_name"`
	TotalAmount    int64        `json:"total_amount"`
	TreatmentCount int64        `json:"treatment_count"`
}

// ProductionReport attributes completed treatments to doctors,
// sorted by total production descending.
type ProductionReport struct {
	Start   time.Time          `json:"start"`
	End     time.Time          `json:"end"`
	Doctors []DoctorProduction `json:"doctors"`
}

// ExpenseCategory is one category bucket of the expense report.
type ExpenseCategory struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

// ExpenseMonth is one monthly bucket of the expense report.
type ExpenseMonth struct {
	Month  string `json:"month"`
	Amount int64  `json:"amount"`
}

// ExpenseReport aggregates operating costs over a range.
type ExpenseReport struct {
	Start      time.Time         `json:"start"`
	End        time.Time         `json:"end"`
	Total      int64             `json:"total"`
	ByCategory []ExpenseCategory `json:"by_category"`
	ByMonth    []ExpenseMonth    `json:"by_month"`
}
