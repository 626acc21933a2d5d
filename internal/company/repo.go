package company

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

func (r *Repo) Create(ctx context.Context, c *Company) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Company, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) UpdateColumns(ctx context.Context, id string, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Model(&Company{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repo) List(ctx context.Context, companyType, status string, offset, limit int) ([]Company, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Company{})
	if companyType != "" {
		q = q.Where("company_type = ?", companyType)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var companies []Company
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&companies).Error; err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}
