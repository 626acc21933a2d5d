package dispatch

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

func (r *Repo) WithTx(tx *gorm.DB) *Repo {
	return &Repo{db: tx}
}

func (r *Repo) Create(ctx context.Context, d *Dispatch) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Dispatch, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var d Dispatch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dispatch not found")
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) GetByOrderID(ctx context.Context, orderID string) (*Dispatch, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var d Dispatch
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dispatch not found")
		}
		return nil, err
	}
	return &d, nil
}

// ExistsForOrder reports whether the order already has a dispatch row.
func (r *Repo) ExistsForOrder(ctx context.Context, orderID string) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&Dispatch{}).
		Where("order_id = ?", orderID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) UpdateColumns(ctx context.Context, id string, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Model(&Dispatch{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Dispatch{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("dispatch not found")
	}
	return nil
}

// SetClosed flips the settlement lock with a conditional update so two
// concurrent closers cannot both win. Zero rows affected means the flag
// already had the requested value.
func (r *Repo) SetClosed(ctx context.Context, id string, closed bool) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := r.db.WithContext(ctx).Model(&Dispatch{}).
		Where("id = ? AND is_closed = ?", id, !closed).
		Update("is_closed", closed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		if closed {
			return apperr.Conflict("dispatch already closed")
		}
		return apperr.Conflict("dispatch already open")
	}
	return nil
}

type ListFilter struct {
	BrokerCompanyID  string
	AssignedDriverID string
	BrokerFlowStatus string
	Closed           *bool
	Offset           int
	Limit            int
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Dispatch, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Dispatch{})
	if f.BrokerCompanyID != "" {
		q = q.Where("broker_company_id = ?", f.BrokerCompanyID)
	}
	if f.AssignedDriverID != "" {
		q = q.Where("assigned_driver_id = ?", f.AssignedDriverID)
	}
	if f.BrokerFlowStatus != "" {
		q = q.Where("broker_flow_status = ?", f.BrokerFlowStatus)
	}
	if f.Closed != nil {
		q = q.Where("is_closed = ?", *f.Closed)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var dispatches []Dispatch
	if err := q.Order("created_at desc").Offset(f.Offset).Limit(f.Limit).Find(&dispatches).Error; err != nil {
		return nil, 0, err
	}
	return dispatches, total, nil
}
