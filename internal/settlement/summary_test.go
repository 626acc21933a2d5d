package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/charge"
)

func TestBuildSummaryDefaultsMissingRate(t *testing.T) {
	rate := decimal.NewFromInt(10)
	lines := []charge.Line{
		{ID: "l-1", Amount: decimal.NewFromInt(100000), TaxRate: &rate},
		{ID: "l-2", Amount: decimal.NewFromInt(50000)},
	}
	issued := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	s := BuildSummary("a1b2c3d4-e5f6-7890", "disp-1", charge.SideSales, lines, issued)

	if !s.Subtotal.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("subtotal = %s, want 150000", s.Subtotal)
	}
	if !s.TaxTotal.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("taxTotal = %s, want 15000", s.TaxTotal)
	}
	if !s.Total.Equal(decimal.NewFromInt(165000)) {
		t.Fatalf("total = %s, want 165000", s.Total)
	}
	if s.InvoiceNumber != "INV-a1b2c3d4" {
		t.Fatalf("invoice number = %s", s.InvoiceNumber)
	}
	if s.IssueDate != "2026-03-02" || s.DueDate != "2026-04-01" {
		t.Fatalf("issue/due = %s / %s", s.IssueDate, s.DueDate)
	}
	if len(s.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(s.Lines))
	}
	if !s.Lines[1].TaxRate.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("line 2 rate should default to 10, got %s", s.Lines[1].TaxRate)
	}
}

func TestBuildSummaryPrefersStoredTaxAmount(t *testing.T) {
	stored := decimal.NewFromInt(4321)
	lines := []charge.Line{
		{ID: "l-1", Amount: decimal.NewFromInt(100000), TaxAmount: &stored},
	}
	s := BuildSummary("order-1", "d-1", charge.SidePurchase, lines, time.Now())
	if !s.TaxTotal.Equal(stored) {
		t.Fatalf("expected stored tax amount to win, got %s", s.TaxTotal)
	}
}

func TestInvoiceNumberShortID(t *testing.T) {
	if got := InvoiceNumber("abc"); got != "INV-abc" {
		t.Fatalf("got %s", got)
	}
	if got := InvoiceNumber("123456789"); got != "INV-12345678" {
		t.Fatalf("got %s", got)
	}
}
