package settlement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/charge"
	"github.com/cargolink/cargolink/internal/order"
)

// BundleItemDetail is the denormalized per-cargo row shown on the bundle
// screen: item, invoice, order and shipper joined flat, with the item's
// adjustments attached afterwards.
type BundleItemDetail struct {
	BundleItemID  string          `gorm:"column:bundle_item_id" json:"bundleItemId"`
	InvoiceID     string          `gorm:"column:invoice_id" json:"invoiceId"`
	InvoiceNumber string          `gorm:"column:invoice_number" json:"invoiceNumber"`
	OrderID       string          `gorm:"column:order_id" json:"orderId"`
	CargoName     string          `gorm:"column:cargo_name" json:"cargoName"`
	CompanyName   string          `gorm:"column:company_name" json:"companyName"`
	BaseAmount    decimal.Decimal `gorm:"column:base_amount" json:"baseAmount"`
	InvoiceTotal  decimal.Decimal `gorm:"column:invoice_total" json:"invoiceTotal"`

	Adjustments []ItemAdjustment `gorm:"-" json:"adjustments"`
}

// BundleItemDetails joins bundle items to their invoices, orders and
// shipper companies. The invoice table depends on the bundle side.
func (r *Repo) BundleItemDetails(ctx context.Context, b *Bundle) ([]BundleItemDetail, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	invoiceTable := "order_sales"
	if b.Type == charge.SidePurchase {
		invoiceTable = "order_purchases"
	}

	var rows []BundleItemDetail
	err := r.db.WithContext(ctx).Table("settlement_bundle_items AS item").
		Select("item.id AS bundle_item_id, item.invoice_id AS invoice_id, "+
			"inv.invoice_number AS invoice_number, item.order_id AS order_id, "+
			"o.cargo_name AS cargo_name, c.name AS company_name, "+
			"item.base_amount AS base_amount, inv.total AS invoice_total").
		Joins("LEFT JOIN "+invoiceTable+" AS inv ON inv.id = item.invoice_id").
		Joins("LEFT JOIN orders AS o ON o.id = item.order_id").
		Joins("LEFT JOIN companies AS c ON c.id = o.company_id").
		Where("item.bundle_id = ?", b.ID).
		Order("item.created_at asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WaitingSettlement is a projection row for orders that finished transport
// with a closed dispatch but no issued settlement yet. ProjectedCost is a
// 90% estimate of the agreed freight cost and is never stored.
type WaitingSettlement struct {
	OrderID           string          `gorm:"column:order_id" json:"orderId"`
	CargoName         string          `gorm:"column:cargo_name" json:"cargoName"`
	PickupDate        string          `gorm:"column:pickup_date" json:"pickupDate"`
	DispatchID        string          `gorm:"column:dispatch_id" json:"dispatchId"`
	AgreedFreightCost decimal.Decimal `gorm:"column:agreed_freight_cost" json:"agreedFreightCost"`
	ProjectedCost     decimal.Decimal `gorm:"-" json:"projectedCost"`
}

var projectionRate = decimal.NewFromFloat(0.9)

// WaitingSettlements lists flow-complete, dispatch-closed orders in a
// pickup-date window.
func (r *Repo) WaitingSettlements(ctx context.Context, companyID, dateFrom, dateTo string) ([]WaitingSettlement, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}

	q := r.db.WithContext(ctx).Table("orders AS o").
		Select("o.id AS order_id, o.cargo_name AS cargo_name, o.pickup_date AS pickup_date, "+
			"d.id AS dispatch_id, d.agreed_freight_cost AS agreed_freight_cost").
		Joins("JOIN order_dispatches AS d ON d.order_id = o.id").
		Where("o.flow_status = ?", string(order.FlowCompleted)).
		Where("o.is_canceled = ?", false).
		Where("d.is_closed = ?", true)
	if companyID != "" {
		q = q.Where("o.company_id = ?", companyID)
	}
	if dateFrom != "" {
		q = q.Where("o.pickup_date >= ?", dateFrom)
	}
	if dateTo != "" {
		q = q.Where("o.pickup_date <= ?", dateTo)
	}

	var rows []WaitingSettlement
	if err := q.Order("o.pickup_date asc").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].ProjectedCost = rows[i].AgreedFreightCost.Mul(projectionRate).Round(0)
	}
	return rows, nil
}
