package address

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

func (r *Repo) Create(ctx context.Context, a *Address) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Address, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var a Address
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("address not found")
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repo) UpdateColumns(ctx context.Context, id string, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Model(&Address{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("address not found")
	}
	return nil
}

func (r *Repo) List(ctx context.Context, companyID, keyword string, offset, limit int) ([]Address, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Address{})
	if companyID != "" {
		q = q.Where("company_id = ?", companyID)
	}
	if keyword != "" {
		kw := "%" + keyword + "%"
		q = q.Where("name LIKE ? OR road_addr LIKE ?", kw, kw)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var addresses []Address
	if err := q.Order("name asc").Offset(offset).Limit(limit).Find(&addresses).Error; err != nil {
		return nil, 0, err
	}
	return addresses, total, nil
}
