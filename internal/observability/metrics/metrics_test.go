package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsDisallowedKeys(t *testing.T) {
	filtered := FilterAttributes(
		attribute.String("endpoint", "/api/v1/payments"),
		attribute.String("patient_id", "12345"),
		attribute.String("method", "cash"),
		attribute.String("reference", "chk-100"),
	)

	if len(filtered) != 2 {
		t.Fatalf("expected 2 allowed attributes, got %d", len(filtered))
	}
	for _, attr := range filtered {
		if attr.Key == "patient_id" || attr.Key == "reference" {
			t.Fatalf("high-cardinality key %s must be dropped", attr.Key)
		}
	}
}

func TestRecordersTolerateNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "denta-test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	ctx := context.Background()
	m.RecordPayment(ctx, "cash")
	m.RecordRefund(ctx)
	m.RecordAdjustment(ctx, "discount")
	m.RecordReport(ctx, "revenue")
}
