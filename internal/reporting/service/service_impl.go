package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/clock"
	obsmetrics "github.com/dentaops/denta/internal/observability/metrics"
	reportingdomain "github.com/dentaops/denta/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const monthKeyFormat = "2006-01"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) reportingdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("reporting.service"),
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) RevenueReport(ctx context.Context, rng reportingdomain.DateRange) (reportingdomain.RevenueReport, error) {
	if err := validateRange(rng); err != nil {
		return reportingdomain.RevenueReport{}, err
	}

	type invoiceRow struct {
		IssuedAt    time.Time `gorm:"column:issued_at"`
		FinalAmount int64     `gorm:"column:final_amount"`
	}
	var invoices []invoiceRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT issued_at, final_amount
		 FROM invoices
		 WHERE issued_at IS NOT NULL AND issued_at >= ? AND issued_at <= ?`,
		rng.Start.UTC(),
		rng.End.UTC(),
	).Scan(&invoices).Error; err != nil {
		return reportingdomain.RevenueReport{}, err
	}

	type paymentRow struct {
		ReceivedAt time.Time `gorm:"column:received_at"`
		Amount     int64     `gorm:"column:amount"`
	}
	var payments []paymentRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT received_at, amount
		 FROM payments
		 WHERE is_refunded = FALSE AND received_at >= ? AND received_at <= ?`,
		rng.Start.UTC(),
		rng.End.UTC(),
	).Scan(&payments).Error; err != nil {
		return reportingdomain.RevenueReport{}, err
	}

	var totalAdjustments int64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0)
		 FROM invoice_adjustments
		 WHERE created_at >= ? AND created_at <= ?`,
		rng.Start.UTC(),
		rng.End.UTC(),
	).Scan(&totalAdjustments).Error; err != nil {
		return reportingdomain.RevenueReport{}, err
	}

	report := reportingdomain.RevenueReport{
		Start:            rng.Start.UTC(),
		End:              rng.End.UTC(),
		TotalAdjustments: totalAdjustments,
	}

	revenueByMonth := map[string]int64{}
	for _, row := range invoices {
		report.TotalRevenue += row.FinalAmount
		revenueByMonth[row.IssuedAt.UTC().Format(monthKeyFormat)] += row.FinalAmount
	}
	collectionsByMonth := map[string]int64{}
	for _, row := range payments {
		report.TotalCollections += row.Amount
		collectionsByMonth[row.ReceivedAt.UTC().Format(monthKeyFormat)] += row.Amount
	}

	report.ByMonth = mergeMonths(revenueByMonth, collectionsByMonth)

	if s.obsMetrics != nil {
		s.obsMetrics.RecordReport(ctx, "revenue")
	}
	return report, nil
}

func (s *Service) ARAgingReport(ctx context.Context) (reportingdomain.ARAgingReport, error) {
	type agingRow struct {
		FinalAmount int64      `gorm:"column:final_amount"`
		PaidAmount  int64      `gorm:"column:paid_amount"`
		IssuedAt    *time.Time `gorm:"column:issued_at"`
		DueAt       *time.Time `gorm:"column:due_at"`
		CreatedAt   time.Time  `gorm:"column:created_at"`
	}
	var rows []agingRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT final_amount, paid_amount, issued_at, due_at, created_at
		 FROM invoices
		 WHERE status IN ('SENT', 'PARTIAL', 'OVERDUE')`,
	).Scan(&rows).Error; err != nil {
		return reportingdomain.ARAgingReport{}, err
	}

	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	report := reportingdomain.ARAgingReport{AsOf: today}

	for _, row := range rows {
		balance := row.FinalAmount - row.PaidAmount
		if balance <= 0 {
			continue
		}

		anchor := row.CreatedAt
		if row.DueAt != nil {
			anchor = *row.DueAt
		} else if row.IssuedAt != nil {
			anchor = *row.IssuedAt
		}

		days := int(today.Sub(anchor.UTC().Truncate(24*time.Hour)).Hours() / 24)
		report.Total += balance
		switch {
		case days < 30:
			report.Current += balance
		case days < 60:
			report.Thirty += balance
		case days < 90:
			report.Sixty += balance
		case days < 120:
			report.Ninety += balance
		default:
			report.Over90 += balance
		}
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordReport(ctx, "ar_aging")
	}
	return report, nil
}

func (s *Service) ProductionByDoctorReport(ctx context.Context, rng reportingdomain.DateRange) (reportingdomain.ProductionReport, error) {
	if err := validateRange(rng); err != nil {
		return reportingdomain.ProductionReport{}, err
	}

	type productionRow struct {
		DoctorID       snowflake.ID `gorm:"column:doctor_id"`
		DoctorName     string       `gorm:"column:doctor_name"`
		TotalAmount    int64        `gorm:"column:total_amount"`
		TreatmentCount int64        `gorm:"column:treatment_count"`
	}
	var rows []productionRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT t.doctor_id AS doctor_id,
			COALESCE(u.name, '') AS doctor_name,
			COALESCE(SUM(t.amount), 0) AS total_amount,
			COUNT(1) AS treatment_count
		 FROM treatments t
		 LEFT JOIN users u ON u.id = t.doctor_id
		 WHERE t.completed_at >= ? AND t.completed_at <= ?
		 GROUP BY t.doctor_id, u.name
		 ORDER BY total_amount DESC`,
		rng.Start.UTC(),
		rng.End.UTC(),
	).Scan(&rows).Error; err != nil {
		return reportingdomain.ProductionReport{}, err
	}

	report := reportingdomain.ProductionReport{
		Start:   rng.Start.UTC(),
		End:     rng.End.UTC(),
		Doctors: make([]reportingdomain.DoctorProduction, 0, len(rows)),
	}
	for _, row := range rows {
		report.Doctors = append(report.Doctors, reportingdomain.DoctorProduction{
			DoctorID:       row.DoctorID,
			DoctorName:     row.DoctorName,
			TotalAmount:    row.TotalAmount,
			TreatmentCount: row.TreatmentCount,
		})
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordReport(ctx, "production_by_doctor")
	}
	return report, nil
}

func (s *Service) ExpenseReport(ctx context.Context, rng reportingdomain.DateRange) (reportingdomain.ExpenseReport, error) {
	if err := validateRange(rng); err != nil {
		return reportingdomain.ExpenseReport{}, err
	}

	type expenseRow struct {
		Category   string    `gorm:"column:category"`
		Amount     int64     `gorm:"column:amount"`
		IncurredAt time.Time `gorm:"column:incurred_at"`
	}
	var rows []expenseRow
	if err := s.db.WithContext(ctx).Raw(
		`SELECT category, amount, incurred_at
		 FROM expenses
		 WHERE incurred_at >= ? AND incurred_at <= ?`,
		rng.Start.UTC(),
		rng.End.UTC(),
	).Scan(&rows).Error; err != nil {
		return reportingdomain.ExpenseReport{}, err
	}

	report := reportingdomain.ExpenseReport{
		Start: rng.Start.UTC(),
		End:   rng.End.UTC(),
	}

	byCategory := map[string]int64{}
	byMonth := map[string]int64{}
	for _, row := range rows {
		report.Total += row.Amount
		byCategory[row.Category] += row.Amount
		byMonth[row.IncurredAt.UTC().Format(monthKeyFormat)] += row.Amount
	}

	report.ByCategory = make([]reportingdomain.ExpenseCategory, 0, len(byCategory))
	for category, amount := range byCategory {
		report.ByCategory = append(report.ByCategory, reportingdomain.ExpenseCategory{
			Category: category,
			Amount:   amount,
		})
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		if report.ByCategory[i].Amount != report.ByCategory[j].Amount {
			return report.ByCategory[i].Amount > report.ByCategory[j].Amount
		}
		return report.ByCategory[i].Category < report.ByCategory[j].Category
	})

	report.ByMonth = make([]reportingdomain.ExpenseMonth, 0, len(byMonth))
	for month, amount := range byMonth {
		report.ByMonth = append(report.ByMonth, reportingdomain.ExpenseMonth{
			Month:  month,
			Amount: amount,
		})
	}
	sort.Slice(report.ByMonth, func(i, j int) bool {
		return report.ByMonth[i].Month < report.ByMonth[j].Month
	})

	if s.obsMetrics != nil {
		s.obsMetrics.RecordReport(ctx, "expense")
	}
	return report, nil
}

func mergeMonths(revenue, collections map[string]int64) []reportingdomain.RevenueMonth {
	keys := map[string]struct{}{}
	for month := range revenue {
		keys[month] = struct{}{}
	}
	for month := range collections {
		keys[month] = struct{}{}
	}

	months := make([]reportingdomain.RevenueMonth, 0, len(keys))
	for month := range keys {
		months = append(months, reportingdomain.RevenueMonth{
			Month:       month,
			Revenue:     revenue[month],
			Collections: collections[month],
		})
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month < months[j].Month
	})
	return months
}

func validateRange(rng reportingdomain.DateRange) error {
	if rng.Start.IsZero() || rng.End.IsZero() {
		return reportingdomain.ErrInvalidRange
	}
	if rng.Start.After(rng.End) {
		return reportingdomain.ErrInvalidRange
	}
	return nil
}
