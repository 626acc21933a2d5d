package settlement

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/charge"
	"github.com/cargolink/cargolink/internal/snapshot"
)

// InvoiceItem is one frozen line inside an invoice's financial snapshot.
// Amounts are captured at invoice creation and never recomputed from the
// charge ledger afterwards.
type InvoiceItem struct {
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	TaxRate     *decimal.Decimal `json:"taxRate,omitempty"`
	TaxAmount   decimal.Decimal  `json:"taxAmount"`
}

// Items is the JSON column type holding an invoice's frozen line items.
type Items []InvoiceItem

func (i Items) Value() (driver.Value, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (i *Items) Scan(v any) error {
	if v == nil {
		*i = nil
		return nil
	}
	switch data := v.(type) {
	case []byte:
		return json.Unmarshal(data, i)
	case string:
		return json.Unmarshal([]byte(data), i)
	default:
		return fmt.Errorf("unsupported items column type %T", v)
	}
}

// OrderSale is a shipper-facing invoice for one order.
type OrderSale struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	OrderID       string          `gorm:"size:36;index;not null" json:"orderId"`
	CompanyID     string          `gorm:"size:36;index" json:"companyId"`
	InvoiceNumber string          `gorm:"size:32;index" json:"invoiceNumber"`
	Status        string          `gorm:"size:16;not null;default:'draft'" json:"status"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	TaxTotal      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"taxTotal"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	IssueDate     string          `gorm:"size:10" json:"issueDate"`
	DueDate       string          `gorm:"size:10" json:"dueDate"`
	Items         Items           `gorm:"type:json" json:"items"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (OrderSale) TableName() string { return "order_sales" }

// OrderPurchase is the carrier-facing counterpart, owed to a driver or a
// carrier company.
type OrderPurchase struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	OrderID       string          `gorm:"size:36;index;not null" json:"orderId"`
	CompanyID     string          `gorm:"size:36;index" json:"companyId"`
	DriverID      string          `gorm:"size:36;index" json:"driverId"`
	InvoiceNumber string          `gorm:"size:32;index" json:"invoiceNumber"`
	Status        string          `gorm:"size:16;not null;default:'draft'" json:"status"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	TaxTotal      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"taxTotal"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	IssueDate     string          `gorm:"size:10" json:"issueDate"`
	DueDate       string          `gorm:"size:10" json:"dueDate"`
	Items         Items           `gorm:"type:json" json:"items"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (OrderPurchase) TableName() string { return "order_purchases" }

// Bundle groups several orders' invoices for consolidated billing. Total
// always equals the sum of item base amounts plus their adjustments, and a
// finalized bundle rejects further changes.
type Bundle struct {
	ID     string          `gorm:"primaryKey;size:36" json:"id"`
	Type   charge.Side     `gorm:"type:varchar(16);not null" json:"type"`
	Name   string          `gorm:"size:128" json:"name"`
	Status string          `gorm:"size:16;not null;default:'open'" json:"status"` // open / finalized
	Total  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Bundle) TableName() string { return "settlement_bundles" }

// BundleItem ties one order's invoice into a bundle at its base amount.
type BundleItem struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	BundleID   string          `gorm:"size:36;index;not null" json:"bundleId"`
	InvoiceID  string          `gorm:"size:36;index;not null" json:"invoiceId"`
	OrderID    string          `gorm:"size:36;index;not null" json:"orderId"`
	BaseAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"baseAmount"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (BundleItem) TableName() string { return "settlement_bundle_items" }

// ItemAdjustment is a signed delta (discount or addition) against one
// bundle item.
type ItemAdjustment struct {
	ID           string           `gorm:"primaryKey;size:36" json:"id"`
	BundleItemID string           `gorm:"size:36;index;not null" json:"bundleItemId"`
	Label        string           `gorm:"size:128" json:"label"`
	Amount       decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"amount"`
	TaxAmount    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"taxAmount,omitempty"`

	CreatedBy string    `gorm:"size:36" json:"createdBy"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (ItemAdjustment) TableName() string { return "settlement_item_adjustments" }
