package charge

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

func (r *Repo) CreateGroup(ctx context.Context, g *Group) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(g).Error
}

// GetGroup loads a group with its lines preloaded.
func (r *Repo) GetGroup(ctx context.Context, id string) (*Group, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var g Group
	if err := r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("charge group not found")
		}
		return nil, err
	}
	if g.Lines == nil {
		g.Lines = []Line{}
	}
	return &g, nil
}

// GetGroupRow loads a group without its lines.
func (r *Repo) GetGroupRow(ctx context.Context, id string) (*Group, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var g Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("charge group not found")
		}
		return nil, err
	}
	return &g, nil
}

// UpdateGroupColumns applies column updates only while the group is
// unlocked. Zero rows affected on an existing group means it was locked.
func (r *Repo) UpdateGroupColumns(ctx context.Context, id string, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := r.db.WithContext(ctx).Model(&Group{}).
		Where("id = ? AND is_locked = ?", id, false).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetGroupRow(ctx, id); err != nil {
			return err
		}
		return apperr.Forbidden("charge group is locked")
	}
	return nil
}

// SetLocked flips the lock with a conditional update so concurrent
// lockers cannot both win.
func (r *Repo) SetLocked(ctx context.Context, id string, locked bool) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := r.db.WithContext(ctx).Model(&Group{}).
		Where("id = ? AND is_locked = ?", id, !locked).
		Update("is_locked", locked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetGroupRow(ctx, id); err != nil {
			return err
		}
		if locked {
			return apperr.Conflict("charge group already locked")
		}
		return apperr.Conflict("charge group already unlocked")
	}
	return nil
}

// DeleteGroup removes an unlocked group and cascades to its lines.
func (r *Repo) DeleteGroup(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := r.db.WithContext(ctx).Where("id = ? AND is_locked = ?", id, false).Delete(&Group{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetGroupRow(ctx, id); err != nil {
			return err
		}
		return apperr.Forbidden("charge group is locked")
	}
	return r.db.WithContext(ctx).Where("group_id = ?", id).Delete(&Line{}).Error
}

func (r *Repo) ListGroups(ctx context.Context, orderID string, offset, limit int) ([]Group, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := r.db.WithContext(ctx).Model(&Group{})
	if orderID != "" {
		q = q.Where("order_id = ?", orderID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var groups []Group
	if err := q.Preload("Lines").Order("created_at desc").
		Offset(offset).Limit(limit).Find(&groups).Error; err != nil {
		return nil, 0, err
	}
	for i := range groups {
		if groups[i].Lines == nil {
			groups[i].Lines = []Line{}
		}
	}
	return groups, total, nil
}

func (r *Repo) CreateLine(ctx context.Context, l *Line) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *Repo) GetLine(ctx context.Context, id string) (*Line, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var l Line
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("charge line not found")
		}
		return nil, err
	}
	return &l, nil
}

func (r *Repo) UpdateLineColumns(ctx context.Context, id string, updates map[string]any) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return r.db.WithContext(ctx).Model(&Line{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repo) DeleteLine(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Line{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("charge line not found")
	}
	return nil
}

// lineSortColumns whitelists sortable columns for the line listing.
var lineSortColumns = map[string]string{
	"createdAt": "created_at",
	"amount":    "amount",
	"side":      "side",
}

type LineFilter struct {
	GroupID   string
	Side      Side
	Offset    int
	Limit     int
	SortBy    string
	SortOrder string
}

func (r *Repo) ListLines(ctx context.Context, f LineFilter) ([]Line, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	col, ok := lineSortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "desc"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "asc"
	}

	q := r.db.WithContext(ctx).Model(&Line{})
	if f.GroupID != "" {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.Side != "" {
		q = q.Where("side = ?", f.Side)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var lines []Line
	if err := q.Order(col + " " + dir).Offset(f.Offset).Limit(f.Limit).Find(&lines).Error; err != nil {
		return nil, 0, err
	}
	return lines, total, nil
}

// LinesByOrder loads every line across all of an order's groups, filtered
// by side when given.
func (r *Repo) LinesByOrder(ctx context.Context, orderID string, side Side) ([]Line, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := r.db.WithContext(ctx).Model(&Line{}).
		Joins("JOIN charge_groups ON charge_groups.id = charge_lines.group_id").
		Where("charge_groups.order_id = ?", orderID)
	if side != "" {
		q = q.Where("charge_lines.side = ?", side)
	}
	var lines []Line
	if err := q.Order("charge_lines.created_at asc").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

type orderSideSum struct {
	OrderID string          `gorm:"column:order_id"`
	Side    Side            `gorm:"column:side"`
	Total   decimal.Decimal `gorm:"column:total"`
}

// SumByOrder aggregates line amounts per order and side in one grouped
// query.
func (r *Repo) SumByOrder(ctx context.Context, orderIDs []string) ([]orderSideSum, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var sums []orderSideSum
	err := r.db.WithContext(ctx).Model(&Line{}).
		Select("charge_groups.order_id AS order_id, charge_lines.side AS side, SUM(charge_lines.amount) AS total").
		Joins("JOIN charge_groups ON charge_groups.id = charge_lines.group_id").
		Where("charge_groups.order_id IN ?", orderIDs).
		Group("charge_groups.order_id, charge_lines.side").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	return sums, nil
}
