package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dentaops/denta/internal/adjustment"
	adjustmentdomain "github.com/dentaops/denta/internal/adjustment/domain"
	"github.com/dentaops/denta/internal/audit"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/internal/config"
	"github.com/dentaops/denta/internal/expense"
	expensedomain "github.com/dentaops/denta/internal/expense/domain"
	"github.com/dentaops/denta/internal/invoice"
	invoicedomain "github.com/dentaops/denta/internal/invoice/domain"
	"github.com/dentaops/denta/internal/observability"
	obsmiddleware "github.com/dentaops/denta/internal/observability/logger"
	obsmetrics "github.com/dentaops/denta/internal/observability/metrics"
	obstracing "github.com/dentaops/denta/internal/observability/tracing"
	"github.com/dentaops/denta/internal/payment"
	paymentdomain "github.com/dentaops/denta/internal/payment/domain"
	"github.com/dentaops/denta/internal/paymentplan"
	plandomain "github.com/dentaops/denta/internal/paymentplan/domain"
	"github.com/dentaops/denta/internal/reporting"
	reportingdomain "github.com/dentaops/denta/internal/reporting/domain"
	"github.com/dentaops/denta/internal/treatment"
	treatmentdomain "github.com/dentaops/denta/internal/treatment/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	invoice.Module,
	payment.Module,
	paymentplan.Module,
	adjustment.Module,
	expense.Module,
	treatment.Module,
	reporting.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	auditSvc      auditdomain.Service
	invoiceSvc    invoicedomain.Service
	paymentSvc    paymentdomain.Service
	planSvc       plandomain.Service
	adjustmentSvc adjustmentdomain.Service
	expenseSvc    expensedomain.Service
	treatmentSvc  treatmentdomain.Service
	reportingSvc  reportingdomain.Service
}

type ServerParams struct {
	fx.In

	Engine        *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	AuditSvc      auditdomain.Service
	InvoiceSvc    invoicedomain.Service
	PaymentSvc    paymentdomain.Service
	PlanSvc       plandomain.Service
	AdjustmentSvc adjustmentdomain.Service
	ExpenseSvc    expensedomain.Service
	TreatmentSvc  treatmentdomain.Service
	ReportingSvc  reportingdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Engine,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		auditSvc:      p.AuditSvc,
		invoiceSvc:    p.InvoiceSvc,
		paymentSvc:    p.PaymentSvc,
		planSvc:       p.PlanSvc,
		adjustmentSvc: p.AdjustmentSvc,
		expenseSvc:    p.ExpenseSvc,
		treatmentSvc:  p.TreatmentSvc,
		reportingSvc:  p.ReportingSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoice)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.POST("/invoices/:id/send", s.SendInvoice)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)
	api.POST("/overdue-sweep", s.MarkOverdueInvoices)
	api.GET("/invoices/:id/adjustments", s.ListAdjustments)

	api.POST("/payments", s.CreatePayment)
	api.GET("/payments", s.ListPayments)
	api.GET("/payments/:id", s.GetPayment)
	api.POST("/payments/:id/refund", s.RefundPayment)

	api.POST("/payment-plans", s.CreatePaymentPlan)
	api.GET("/payment-plans", s.ListPaymentPlans)
	api.GET("/payment-plans/:id", s.GetPaymentPlan)
	api.POST("/payment-plans/:id/cancel", s.CancelPaymentPlan)
	api.GET("/payment-plans/:id/installments", s.ListInstallments)
	api.POST("/payment-plans/:id/installments", s.CreateInstallment)

	api.POST("/adjustments", s.CreateAdjustment)

	api.POST("/expenses", s.CreateExpense)
	api.GET("/expenses", s.ListExpenses)

	api.POST("/treatments", s.RecordTreatment)
	api.GET("/treatments", s.ListTreatments)

	api.GET("/reports/revenue", s.RevenueReport)
	api.GET("/reports/ar-aging", s.ARAgingReport)
	api.GET("/reports/production", s.ProductionReport)
	api.GET("/reports/expenses", s.ExpenseReport)

	api.GET("/audit-logs", s.ListAuditLogs)
}
