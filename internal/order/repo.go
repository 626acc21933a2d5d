package order

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// WithTx returns a repo bound to the given transaction.
func (r *Repo) WithTx(tx *gorm.DB) *Repo {
	return &Repo{db: tx}
}

func (r *Repo) Create(ctx context.Context, o *Order) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Order, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var o Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, err
	}
	return &o, nil
}

// UpdateColumns applies a prepared column map to one order.
func (r *Repo) UpdateColumns(ctx context.Context, id string, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Model(&Order{}).Where("id = ?", id).Updates(updates).Error
}

// ListFilter narrows List results; zero values are ignored.
type ListFilter struct {
	CompanyID  string
	FlowStatus FlowStatus
	Canceled   *bool
	DateFrom   string // against pickup_date
	DateTo     string
	Offset     int
	Limit      int
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Order{})
	if f.CompanyID != "" {
		q = q.Where("company_id = ?", f.CompanyID)
	}
	if f.FlowStatus != "" {
		q = q.Where("flow_status = ?", f.FlowStatus)
	}
	if f.Canceled != nil {
		q = q.Where("is_canceled = ?", *f.Canceled)
	}
	if f.DateFrom != "" {
		q = q.Where("pickup_date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("pickup_date <= ?", f.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []Order
	if err := q.Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
