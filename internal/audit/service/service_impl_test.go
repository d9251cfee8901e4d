package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/dentaops/denta/internal/audit/domain"
	auditrepo "github.com/dentaops/denta/internal/audit/repository"
	auditservice "github.com/dentaops/denta/internal/audit/service"
	auditcontext "github.com/dentaops/denta/internal/auditcontext"
	"github.com/dentaops/denta/pkg/db/pagination"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuditService(t *testing.T) (auditdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Exec(`CREATE TABLE audit_logs (
		id BIGINT PRIMARY KEY,
		actor_type TEXT,
		actor_id TEXT,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		metadata TEXT,
		ip_address TEXT,
		user_agent TEXT,
		request_id TEXT,
		created_at TIMESTAMP NOT NULL
	)`).Error; err != nil {
		t.Fatalf("schema exec failed: %v", err)
	}

	node, err := snowflake.NewNode(27)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	return svc, db
}

func TestAuditLogResolvesActorAndRequestContext(t *testing.T) {
	svc, db := setupAuditService(t)

	ctx := auditcontext.WithRequestID(context.Background(), "req-123")
	ctx = auditcontext.WithActor(ctx, "staff", "user-9")
	ctx = auditcontext.WithIPAddress(ctx, "10.0.0.9")

	resourceID := "42"
	if err := svc.AuditLog(ctx, "", nil, "invoice.created", "invoice", &resourceID, map[string]any{
		"total_amount": 12000,
	}); err != nil {
		t.Fatalf("audit log: %v", err)
	}

	var row struct {
		ActorType string  `gorm:"column:actor_type"`
		ActorID   *string `gorm:"column:actor_id"`
		RequestID *string `gorm:"column:request_id"`
		IPAddress *string `gorm:"column:ip_address"`
	}
	if err := db.Raw("SELECT actor_type, actor_id, request_id, ip_address FROM audit_logs LIMIT 1").Scan(&row).Error; err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if row.ActorType != "staff" {
		t.Fatalf("expected actor from context, got %q", row.ActorType)
	}
	if row.ActorID == nil || *row.ActorID != "user-9" {
		t.Fatalf("expected actor id user-9, got %v", row.ActorID)
	}
	if row.RequestID == nil || *row.RequestID != "req-123" {
		t.Fatalf("expected request id req-123, got %v", row.RequestID)
	}
	if row.IPAddress == nil || *row.IPAddress != "10.0.0.9" {
		t.Fatalf("expected ip 10.0.0.9, got %v", row.IPAddress)
	}
}

func TestAuditLogDefaultsToSystemActor(t *testing.T) {
	svc, db := setupAuditService(t)

	resourceID := "7"
	if err := svc.AuditLog(context.Background(), "", nil, "payment.received", "payment", &resourceID, nil); err != nil {
		t.Fatalf("audit log: %v", err)
	}

	var actorType string
	if err := db.Raw("SELECT actor_type FROM audit_logs LIMIT 1").Scan(&actorType).Error; err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if actorType != string(auditdomain.ActorTypeSystem) {
		t.Fatalf("expected system actor, got %q", actorType)
	}
}

func TestAuditLogRejectsEmptyAction(t *testing.T) {
	svc, _ := setupAuditService(t)

	if err := svc.AuditLog(context.Background(), "", nil, "  ", "invoice", nil, nil); err != auditdomain.ErrInvalidAction {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestListAuditLogsFiltersAndPaginates(t *testing.T) {
	svc, _ := setupAuditService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		resourceID := fmt.Sprintf("%d", i)
		action := "invoice.created"
		if i%2 == 1 {
			action = "payment.received"
		}
		if err := svc.AuditLog(ctx, "", nil, action, "invoice", &resourceID, nil); err != nil {
			t.Fatalf("audit log: %v", err)
		}
	}

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: "invoice.created"})
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(resp.AuditLogs) != 3 {
		t.Fatalf("expected 3 matching logs, got %d", len(resp.AuditLogs))
	}

	if _, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageToken: "not-base64!!"},
	}); err != auditdomain.ErrInvalidPageToken {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}

	start := time.Now().Add(time.Hour)
	end := time.Now()
	if _, err := svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end}); err != auditdomain.ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}
