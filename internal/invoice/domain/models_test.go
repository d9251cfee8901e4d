package domain_test

import (
	"testing"

	"github.com/dentaops/denta/internal/invoice/domain"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name    string
		current domain.InvoiceStatus
		final   int64
		paid    int64
		want    domain.InvoiceStatus
	}{
		{"unpaid sent stays sent", domain.InvoiceStatusSent, 10000, 0, domain.InvoiceStatusSent},
		{"partial payment", domain.InvoiceStatusSent, 10000, 4000, domain.InvoiceStatusPartial},
		{"exact payment settles", domain.InvoiceStatusSent, 10000, 10000, domain.InvoiceStatusPaid},
		{"overpayment settles", domain.InvoiceStatusPartial, 10000, 15000, domain.InvoiceStatusPaid},
		{"refund to zero falls back to sent", domain.InvoiceStatusPaid, 10000, 0, domain.InvoiceStatusSent},
		{"refund to partial", domain.InvoiceStatusPaid, 10000, 4000, domain.InvoiceStatusPartial},
		{"zero final never paid", domain.InvoiceStatusSent, 0, 0, domain.InvoiceStatusSent},
		{"overdue unpaid keeps overdue", domain.InvoiceStatusOverdue, 10000, 0, domain.InvoiceStatusOverdue},
		{"overdue partial becomes partial", domain.InvoiceStatusOverdue, 10000, 100, domain.InvoiceStatusPartial},
		{"canceled is terminal", domain.InvoiceStatusCanceled, 10000, 10000, domain.InvoiceStatusCanceled},
		{"draft stays draft while unpaid", domain.InvoiceStatusDraft, 10000, 0, domain.InvoiceStatusDraft},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.DeriveStatus(tc.current, tc.final, tc.paid)
			if got != tc.want {
				t.Fatalf("DeriveStatus(%s, %d, %d) = %s, want %s", tc.current, tc.final, tc.paid, got, tc.want)
			}
		})
	}
}

func TestInvoiceBalanceNeverNegative(t *testing.T) {
	invoice := domain.Invoice{FinalAmount: 10000, PaidAmount: 15000}
	if got := invoice.Balance(); got != 0 {
		t.Fatalf("expected zero balance on overpaid invoice, got %d", got)
	}

	invoice = domain.Invoice{FinalAmount: 10000, PaidAmount: 4000}
	if got := invoice.Balance(); got != 6000 {
		t.Fatalf("expected balance 6000, got %d", got)
	}
}
