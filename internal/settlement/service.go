package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/charge"
	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
	"github.com/cargolink/cargolink/internal/dispatch"
	"github.com/cargolink/cargolink/internal/order"
	"github.com/cargolink/cargolink/internal/snapshot"
)

type Service struct {
	db         *gorm.DB
	repo       *Repo
	orders     *order.Repo
	dispatches *dispatch.Repo
	charges    *charge.Repo
	logs       *changelog.Logger
	now        func() time.Time
}

func NewService(db *gorm.DB, logs *changelog.Logger) *Service {
	return &Service{
		db:         db,
		repo:       NewRepo(db),
		orders:     order.NewRepo(db),
		dispatches: dispatch.NewRepo(db),
		charges:    charge.NewRepo(db),
		logs:       logs,
		now:        time.Now,
	}
}

// normalizeItems fills derived tax amounts and totals an invoice's items.
func normalizeItems(items []InvoiceItem) (Items, decimal.Decimal, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, decimal.Zero, apperr.Validation("at least one item required")
	}
	out := make(Items, len(items))
	var subtotal, taxTotal decimal.Decimal
	for i, item := range items {
		if item.TaxAmount.IsZero() && item.TaxRate != nil {
			item.TaxAmount = charge.TaxFor(item.Amount, *item.TaxRate)
		}
		out[i] = item
		subtotal = subtotal.Add(item.Amount)
		taxTotal = taxTotal.Add(item.TaxAmount)
	}
	return out, subtotal, taxTotal, nil
}

type CreateSaleInput struct {
	OrderID   string
	CompanyID string
	Items     []InvoiceItem
	IssueDate string
}

// CreateSalesInvoice freezes the given items into an OrderSale row. The
// amounts are snapshot values and never track later ledger edits.
func (s *Service) CreateSalesInvoice(ctx context.Context, in CreateSaleInput, actor auth.Actor) (*OrderSale, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if _, err := s.orders.GetByID(ctx, in.OrderID); err != nil {
		return nil, err
	}
	items, subtotal, taxTotal, err := normalizeItems(in.Items)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	issueDate := in.IssueDate
	if issueDate == "" {
		issueDate = issued.Format(dateLayout)
	}

	sale := &OrderSale{
		ID:              uuid.NewString(),
		OrderID:         in.OrderID,
		CompanyID:       in.CompanyID,
		InvoiceNumber:   InvoiceNumber(in.OrderID),
		Status:          "draft",
		Subtotal:        subtotal,
		TaxTotal:        taxTotal,
		Total:           subtotal.Add(taxTotal),
		IssueDate:       issueDate,
		DueDate:         issued.AddDate(0, 0, paymentTermDays).Format(dateLayout),
		Items:           items,
		CreatedBy:       actor.ID,
		UpdatedBy:       actor.ID,
		UpdatedSnapshot: snapshot.ActorOf(actor),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateSale(ctx, sale); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   in.OrderID,
			Actor:      actor,
			ChangeType: "createSalesInvoice",
			NewData:    sale,
		})
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

type CreatePurchaseInput struct {
	OrderID   string
	CompanyID string
	DriverID  string
	Items     []InvoiceItem
	IssueDate string
}

func (s *Service) CreatePurchaseInvoice(ctx context.Context, in CreatePurchaseInput, actor auth.Actor) (*OrderPurchase, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if in.CompanyID == "" && in.DriverID == "" {
		return nil, apperr.Validation("companyId or driverId required")
	}
	if _, err := s.orders.GetByID(ctx, in.OrderID); err != nil {
		return nil, err
	}
	items, subtotal, taxTotal, err := normalizeItems(in.Items)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	issueDate := in.IssueDate
	if issueDate == "" {
		issueDate = issued.Format(dateLayout)
	}

	purchase := &OrderPurchase{
		ID:              uuid.NewString(),
		OrderID:         in.OrderID,
		CompanyID:       in.CompanyID,
		DriverID:        in.DriverID,
		InvoiceNumber:   InvoiceNumber(in.OrderID),
		Status:          "draft",
		Subtotal:        subtotal,
		TaxTotal:        taxTotal,
		Total:           subtotal.Add(taxTotal),
		IssueDate:       issueDate,
		DueDate:         issued.AddDate(0, 0, paymentTermDays).Format(dateLayout),
		Items:           items,
		CreatedBy:       actor.ID,
		UpdatedBy:       actor.ID,
		UpdatedSnapshot: snapshot.ActorOf(actor),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreatePurchase(ctx, purchase); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   in.OrderID,
			Actor:      actor,
			ChangeType: "createPurchaseInvoice",
			NewData:    purchase,
		})
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// SummaryForDispatch previews the settlement for one side of a dispatch's
// order from the live charge ledger. Missing lines fail with NotFound.
func (s *Service) SummaryForDispatch(ctx context.Context, dispatchID string, side charge.Side) (*Summary, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !side.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "invalid side: %s", side)
	}
	d, err := s.dispatches.GetByID(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	lines, err := s.charges.LinesByOrder(ctx, d.OrderID, side)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "no %s charge lines for order %s", side, d.OrderID)
	}
	summary := BuildSummary(d.OrderID, dispatchID, side, lines, s.now())
	return &summary, nil
}

type BuildBundleInput struct {
	OrderIDs []string
	Type     charge.Side
	Name     string
}

// BuildBundle assembles one bundle from the latest invoice of every given
// order, all-or-nothing: an order without an invoice fails the batch.
func (s *Service) BuildBundle(ctx context.Context, in BuildBundleInput, actor auth.Actor) (*Bundle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if len(in.OrderIDs) == 0 {
		return nil, apperr.Validation("orderIds required")
	}
	if !in.Type.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "invalid bundle type: %s", in.Type)
	}

	b := &Bundle{
		ID:              uuid.NewString(),
		Type:            in.Type,
		Name:            in.Name,
		Status:          "open",
		CreatedBy:       actor.ID,
		UpdatedBy:       actor.ID,
		UpdatedSnapshot: snapshot.ActorOf(actor),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateBundle(ctx, b); err != nil {
			return err
		}
		for _, orderID := range in.OrderIDs {
			var invoiceID string
			var base decimal.Decimal
			if in.Type == charge.SideSales {
				sale, err := repo.LatestSaleByOrder(ctx, orderID)
				if err != nil {
					return err
				}
				invoiceID, base = sale.ID, sale.Total
			} else {
				purchase, err := repo.LatestPurchaseByOrder(ctx, orderID)
				if err != nil {
					return err
				}
				invoiceID, base = purchase.ID, purchase.Total
			}
			item := &BundleItem{
				ID:         uuid.NewString(),
				BundleID:   b.ID,
				InvoiceID:  invoiceID,
				OrderID:    orderID,
				BaseAmount: base,
			}
			if err := repo.CreateBundleItem(ctx, item); err != nil {
				return err
			}
			b.Total = b.Total.Add(base)
		}
		return repo.UpdateBundleColumns(ctx, b.ID, map[string]any{"total": b.Total})
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

type AdjustmentInput struct {
	Label     string
	Amount    decimal.Decimal
	TaxAmount *decimal.Decimal
}

// adjustmentDelta is the signed amount an adjustment contributes to the
// bundle total.
func adjustmentDelta(in AdjustmentInput) decimal.Decimal {
	delta := in.Amount
	if in.TaxAmount != nil {
		delta = delta.Add(*in.TaxAmount)
	}
	return delta
}

// AddAdjustment appends a signed delta to a bundle item and keeps the
// bundle total equal to the sum of bases plus adjustments. The total moves
// by an in-database increment conditioned on the bundle still being open,
// so concurrent adjustments and a racing finalize cannot corrupt it.
func (s *Service) AddAdjustment(ctx context.Context, bundleItemID string, in AdjustmentInput, actor auth.Actor) (*ItemAdjustment, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	item, err := s.repo.GetBundleItem(ctx, bundleItemID)
	if err != nil {
		return nil, err
	}

	adj := &ItemAdjustment{
		ID:           uuid.NewString(),
		BundleItemID: bundleItemID,
		Label:        in.Label,
		Amount:       in.Amount,
		TaxAmount:    in.TaxAmount,
		CreatedBy:    actor.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateAdjustment(ctx, adj); err != nil {
			return err
		}
		return repo.AddToBundleTotal(ctx, item.BundleID, adjustmentDelta(in), map[string]any{
			"updated_by":       actor.ID,
			"updated_snapshot": snapshot.ActorOf(actor),
		})
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// BundleItems returns the denormalized bundle rows with each item's
// adjustments grouped in.
func (s *Service) BundleItems(ctx context.Context, bundleID string) (*Bundle, []BundleItemDetail, error) {
	if s == nil || s.repo == nil {
		return nil, nil, fmt.Errorf("service not initialized")
	}
	b, err := s.repo.GetBundle(ctx, bundleID)
	if err != nil {
		return nil, nil, err
	}
	details, err := s.repo.BundleItemDetails(ctx, b)
	if err != nil {
		return nil, nil, err
	}

	itemIDs := make([]string, len(details))
	for i := range details {
		itemIDs[i] = details[i].BundleItemID
		details[i].Adjustments = []ItemAdjustment{}
	}
	adjs, err := s.repo.AdjustmentsByItems(ctx, itemIDs)
	if err != nil {
		return nil, nil, err
	}
	byItem := make(map[string]*BundleItemDetail, len(details))
	for i := range details {
		byItem[details[i].BundleItemID] = &details[i]
	}
	for _, adj := range adjs {
		if d, ok := byItem[adj.BundleItemID]; ok {
			d.Adjustments = append(d.Adjustments, adj)
		}
	}
	return b, details, nil
}

// Finalize freezes a bundle.
func (s *Service) Finalize(ctx context.Context, bundleID string, actor auth.Actor) (*Bundle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.FinalizeBundle(ctx, bundleID); err != nil {
			return err
		}
		return repo.UpdateBundleColumns(ctx, bundleID, map[string]any{
			"updated_by":       actor.ID,
			"updated_snapshot": snapshot.ActorOf(actor),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetBundle(ctx, bundleID)
}

func (s *Service) GetBundle(ctx context.Context, id string) (*Bundle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetBundle(ctx, id)
}

func (s *Service) ListBundles(ctx context.Context, bundleType, status string, offset, limit int) ([]Bundle, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.ListBundles(ctx, bundleType, status, offset, limit)
}

func (s *Service) Waiting(ctx context.Context, companyID, dateFrom, dateTo string) ([]WaitingSettlement, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.WaitingSettlements(ctx, companyID, dateFrom, dateTo)
}
