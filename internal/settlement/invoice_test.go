package settlement

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

func TestNormalizeItemsDerivesTaxAndTotals(t *testing.T) {
	rate := decimal.NewFromInt(10)
	items, subtotal, taxTotal, err := normalizeItems([]InvoiceItem{
		{Description: "기본운임", Amount: decimal.NewFromInt(300000), TaxRate: &rate},
		{Description: "대기료", Amount: decimal.NewFromInt(50000), TaxAmount: decimal.NewFromInt(3000)},
		{Description: "할증", Amount: decimal.NewFromInt(20000)},
	})
	if err != nil {
		t.Fatalf("normalizeItems: %v", err)
	}
	if !items[0].TaxAmount.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("item 1 tax = %s, want 30000", items[0].TaxAmount)
	}
	if !items[1].TaxAmount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("explicit tax should be kept, got %s", items[1].TaxAmount)
	}
	if !items[2].TaxAmount.IsZero() {
		t.Fatalf("rate-less item should stay untaxed, got %s", items[2].TaxAmount)
	}
	if !subtotal.Equal(decimal.NewFromInt(370000)) {
		t.Fatalf("subtotal = %s, want 370000", subtotal)
	}
	if !taxTotal.Equal(decimal.NewFromInt(33000)) {
		t.Fatalf("taxTotal = %s, want 33000", taxTotal)
	}
}

func TestNormalizeItemsRequiresAtLeastOne(t *testing.T) {
	_, _, _, err := normalizeItems(nil)
	if err == nil {
		t.Fatalf("expected error for empty items")
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", apperr.KindOf(err))
	}
}
