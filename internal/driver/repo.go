package driver

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

func (r *Repo) Create(ctx context.Context, d *Driver) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Driver, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var d Driver
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("driver not found")
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) UpdateColumns(ctx context.Context, id string, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Model(&Driver{}).Where("id = ?", id).Updates(updates).Error
}

// ListFilter narrows driver listings. Keyword matches name, phone and
// vehicle number with a prefix search.
type ListFilter struct {
	CompanyID string
	Status    string
	Keyword   string
	Offset    int
	Limit     int
}

func (r *Repo) List(ctx context.Context, f ListFilter) ([]Driver, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Driver{})
	if f.CompanyID != "" {
		q = q.Where("company_id = ?", f.CompanyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Keyword != "" {
		kw := f.Keyword + "%"
		q = q.Where("name LIKE ? OR phone LIKE ? OR vehicle_number LIKE ?", kw, kw, kw)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var drivers []Driver
	if err := q.Order("created_at desc").Offset(f.Offset).Limit(f.Limit).Find(&drivers).Error; err != nil {
		return nil, 0, err
	}
	return drivers, total, nil
}
