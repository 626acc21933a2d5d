package charge

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTaxForRoundsToWholeUnit(t *testing.T) {
	cases := []struct {
		amount int64
		rate   int64
		want   int64
	}{
		{100000, 10, 10000},
		{50000, 10, 5000},
		{33333, 10, 3333},
		{15, 10, 2}, // 1.5 rounds up
		{0, 10, 0},
	}
	for _, tc := range cases {
		got := TaxFor(decimal.NewFromInt(tc.amount), decimal.NewFromInt(tc.rate))
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Fatalf("TaxFor(%d, %d) = %s, want %d", tc.amount, tc.rate, got, tc.want)
		}
	}
}

func TestDeriveTaxAmount(t *testing.T) {
	rate := decimal.NewFromInt(10)
	amount := decimal.NewFromInt(100000)

	got := deriveTaxAmount(amount, &rate, nil)
	if got == nil || !got.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected derived tax 10000, got %v", got)
	}

	explicit := decimal.NewFromInt(7777)
	got = deriveTaxAmount(amount, &rate, &explicit)
	if got == nil || !got.Equal(explicit) {
		t.Fatalf("expected explicit tax to win, got %v", got)
	}

	if deriveTaxAmount(amount, nil, nil) != nil {
		t.Fatalf("expected nil tax when no rate given")
	}
}
