package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/charge"
)

const dateLayout = "2006-01-02"

// paymentTermDays is the standard net payment term applied to generated
// invoices.
const paymentTermDays = 30

// SummaryLine is one ledger line with its effective tax resolved.
type SummaryLine struct {
	LineID    string          `json:"lineId"`
	Memo      string          `json:"memo"`
	Amount    decimal.Decimal `json:"amount"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
}

// Summary is a settlement preview derived from the charge ledger. Nothing
// here is stored; the numbers freeze only when an invoice is created.
type Summary struct {
	OrderID       string          `json:"orderId"`
	DispatchID    string          `json:"dispatchId"`
	Side          charge.Side     `json:"side"`
	InvoiceNumber string          `json:"invoiceNumber"`
	IssueDate     string          `json:"issueDate"`
	DueDate       string          `json:"dueDate"`
	Lines         []SummaryLine   `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxTotal      decimal.Decimal `json:"taxTotal"`
	Total         decimal.Decimal `json:"total"`
}

// InvoiceNumber fabricates a human-readable invoice number from the order
// id prefix.
func InvoiceNumber(orderID string) string {
	if len(orderID) > 8 {
		orderID = orderID[:8]
	}
	return "INV-" + orderID
}

// BuildSummary folds charge lines into a settlement preview. A line
// without a stored tax amount gets one derived from its rate, defaulting
// to the standard 10% when no rate was recorded.
func BuildSummary(orderID, dispatchID string, side charge.Side, lines []charge.Line, issued time.Time) Summary {
	s := Summary{
		OrderID:       orderID,
		DispatchID:    dispatchID,
		Side:          side,
		InvoiceNumber: InvoiceNumber(orderID),
		IssueDate:     issued.Format(dateLayout),
		DueDate:       issued.AddDate(0, 0, paymentTermDays).Format(dateLayout),
		Lines:         make([]SummaryLine, 0, len(lines)),
	}

	for _, l := range lines {
		rate := charge.DefaultTaxRate
		if l.TaxRate != nil {
			rate = *l.TaxRate
		}
		tax := charge.TaxFor(l.Amount, rate)
		if l.TaxAmount != nil {
			tax = *l.TaxAmount
		}

		s.Lines = append(s.Lines, SummaryLine{
			LineID:    l.ID,
			Memo:      l.Memo,
			Amount:    l.Amount,
			TaxRate:   rate,
			TaxAmount: tax,
		})
		s.Subtotal = s.Subtotal.Add(l.Amount)
		s.TaxTotal = s.TaxTotal.Add(tax)
	}
	s.Total = s.Subtotal.Add(s.TaxTotal)
	return s
}
