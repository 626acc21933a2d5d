package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) WithTx(tx *gorm.DB) *Repo {
	return &Repo{db: tx}
}

func (r *Repo) CreateSale(ctx context.Context, s *OrderSale) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) CreatePurchase(ctx context.Context, p *OrderPurchase) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) GetSale(ctx context.Context, id string) (*OrderSale, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var s OrderSale
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("sales invoice not found")
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) GetPurchase(ctx context.Context, id string) (*OrderPurchase, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p OrderPurchase
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("purchase invoice not found")
		}
		return nil, err
	}
	return &p, nil
}

// LatestSaleByOrder returns the newest sales invoice for an order.
func (r *Repo) LatestSaleByOrder(ctx context.Context, orderID string) (*OrderSale, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var s OrderSale
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at desc").First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "no sales invoice for order %s", orderID)
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) LatestPurchaseByOrder(ctx context.Context, orderID string) (*OrderPurchase, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p OrderPurchase
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at desc").First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "no purchase invoice for order %s", orderID)
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) CreateBundle(ctx context.Context, b *Bundle) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repo) GetBundle(ctx context.Context, id string) (*Bundle, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var b Bundle
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bundle not found")
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repo) CreateBundleItem(ctx context.Context, item *BundleItem) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repo) GetBundleItem(ctx context.Context, id string) (*BundleItem, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var item BundleItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bundle item not found")
		}
		return nil, err
	}
	return &item, nil
}

func (r *Repo) BundleItemRows(ctx context.Context, bundleID string) ([]BundleItem, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var items []BundleItem
	if err := r.db.WithContext(ctx).Where("bundle_id = ?", bundleID).
		Order("created_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repo) CreateAdjustment(ctx context.Context, adj *ItemAdjustment) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(adj).Error
}

// AdjustmentsByItems loads all adjustments for a set of bundle item ids.
func (r *Repo) AdjustmentsByItems(ctx context.Context, itemIDs []string) ([]ItemAdjustment, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var adjs []ItemAdjustment
	if err := r.db.WithContext(ctx).Where("bundle_item_id IN ?", itemIDs).
		Order("created_at asc").Find(&adjs).Error; err != nil {
		return nil, err
	}
	return adjs, nil
}

func (r *Repo) UpdateBundleColumns(ctx context.Context, id string, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Model(&Bundle{}).Where("id = ?", id).Updates(updates).Error
}

// AddToBundleTotal folds a signed delta into an open bundle's total with a
// single conditional update, so concurrent adjustments cannot lose each
// other's delta and a finalized bundle rejects the write.
func (r *Repo) AddToBundleTotal(ctx context.Context, id string, delta decimal.Decimal, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["total"] = gorm.Expr("total + ?", delta)
	res := r.db.WithContext(ctx).Model(&Bundle{}).
		Where("id = ? AND status = ?", id, "open").
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetBundle(ctx, id); err != nil {
			return err
		}
		return apperr.Forbidden("bundle is finalized")
	}
	return nil
}

// FinalizeBundle moves an open bundle to finalized with a conditional
// update; a bundle that is already finalized reports Conflict.
func (r *Repo) FinalizeBundle(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := r.db.WithContext(ctx).Model(&Bundle{}).
		Where("id = ? AND status = ?", id, "open").
		Update("status", "finalized")
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetBundle(ctx, id); err != nil {
			return err
		}
		return apperr.Conflict("bundle already finalized")
	}
	return nil
}

func (r *Repo) ListBundles(ctx context.Context, bundleType, status string, offset, limit int) ([]Bundle, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Bundle{})
	if bundleType != "" {
		q = q.Where("type = ?", bundleType)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var bundles []Bundle
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&bundles).Error; err != nil {
		return nil, 0, err
	}
	return bundles, total, nil
}
