package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	"github.com/dentaops/denta/internal/clock"
	treatmentdomain "github.com/dentaops/denta/internal/treatment/domain"
	treatmentrepo "github.com/dentaops/denta/internal/treatment/repository"
	treatmentservice "github.com/dentaops/denta/internal/treatment/service"
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

func setupTreatmentService(t *testing.T) (treatmentdomain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_treatment_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Exec(`CREATE TABLE treatments (
		id BIGINT PRIMARY KEY,
		patient_id BIGINT NOT NULL,
		doctor_id BIGINT NOT NULL,
		invoice_id BIGINT,
		name TEXT NOT NULL,
		amount BIGINT NOT NULL DEFAULT 0,
		completed_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error; err != nil {
		t.Fatalf("schema exec failed: %v", err)
	}

	node, err := snowflake.NewNode(26)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	svc := treatmentservice.NewService(treatmentservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		AuditSvc: noopAuditService{},
		Repo:     treatmentrepo.Provide(),
	})
	return svc, clk
}

func TestRecordTreatmentDefaultsCompletedAt(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupTreatmentService(t)

	treatment, err := svc.RecordCompleted(ctx, treatmentdomain.RecordTreatmentRequest{
		PatientID: 7001,
		DoctorID:  8001,
		Name:      " Root canal ",
		Amount:    60000,
	})
	if err != nil {
		t.Fatalf("record treatment: %v", err)
	}
	if treatment.Name != "Root canal" {
		t.Fatalf("expected trimmed name, got %q", treatment.Name)
	}
	if !treatment.CompletedAt.Equal(clk.Now()) {
		t.Fatalf("expected completed_at to default to now, got %v", treatment.CompletedAt)
	}

	found, err := svc.GetByID(ctx, treatment.ID)
	if err != nil {
		t.Fatalf("get treatment: %v", err)
	}
	if found.Amount != 60000 {
		t.Fatalf("expected amount 60000, got %d", found.Amount)
	}
}

func TestRecordTreatmentValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupTreatmentService(t)

	if _, err := svc.RecordCompleted(ctx, treatmentdomain.RecordTreatmentRequest{
		DoctorID: 8001, Name: "Cleaning", Amount: 100,
	}); err != treatmentdomain.ErrInvalidPatient {
		t.Fatalf("expected ErrInvalidPatient, got %v", err)
	}
	if _, err := svc.RecordCompleted(ctx, treatmentdomain.RecordTreatmentRequest{
		PatientID: 7001, Name: "Cleaning", Amount: 100,
	}); err != treatmentdomain.ErrInvalidDoctor {
		t.Fatalf("expected ErrInvalidDoctor, got %v", err)
	}
	if _, err := svc.RecordCompleted(ctx, treatmentdomain.RecordTreatmentRequest{
		PatientID: 7001, DoctorID: 8001, Name: "  ", Amount: 100,
	}); err != treatmentdomain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := svc.RecordCompleted(ctx, treatmentdomain.RecordTreatmentRequest{
		PatientID: 7001, DoctorID: 8001, Name: "Cleaning", Amount: -1,
	}); err != treatmentdomain.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestListTreatmentsFiltersByDoctor(t *testing.T) {
	ctx := context.Background()
	svc, clk := setupTreatmentService(t)

	drA := snowflake.ID(8001)
	drB := snowflake.ID(8002)
	for _, doctorID := range []snowflake.ID{drA, drA, drB} {
		if _, err := svc.RecordCompleted(ctx, treatmentdomain.RecordTreatmentRequest{
			PatientID: 7001,
			DoctorID:  doctorID,
			Name:      "Cleaning",
			Amount:    12000,
		}); err != nil {
			t.Fatalf("record treatment: %v", err)
		}
	}

	treatments, err := svc.List(ctx, treatmentdomain.ListFilter{DoctorID: drA})
	if err != nil {
		t.Fatalf("list treatments: %v", err)
	}
	if len(treatments) != 2 {
		t.Fatalf("expected 2 treatments for doctor, got %d", len(treatments))
	}

	end := clk.Now().Add(-time.Hour)
	treatments, err = svc.List(ctx, treatmentdomain.ListFilter{EndAt: &end})
	if err != nil {
		t.Fatalf("list treatments: %v", err)
	}
	if len(treatments) != 0 {
		t.Fatalf("expected no treatments before range, got %d", len(treatments))
	}
}
