package charge

import "github.com/shopspring/decimal"

// DefaultTaxRate is the VAT percentage applied when a line carries no
// explicit rate at settlement time.
var DefaultTaxRate = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// TaxFor derives the tax amount for an amount at a percentage rate,
// rounded to the nearest whole unit.
func TaxFor(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(0)
}

// deriveTaxAmount fills the tax amount a caller omitted. It only computes
// when a rate was given; a rate-less line keeps a nil tax amount.
func deriveTaxAmount(amount decimal.Decimal, rate, explicit *decimal.Decimal) *decimal.Decimal {
	if explicit != nil {
		return explicit
	}
	if rate == nil {
		return nil
	}
	t := TaxFor(amount, *rate)
	return &t
}
