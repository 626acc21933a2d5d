package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/order"
)

// Fixed order-count targets the KPI cards report progress against.
const (
	weeklyOrderTarget  = 100
	monthlyOrderTarget = 350
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

type KPIInput struct {
	CompanyID string
	Period    string // "week", "month", or empty with explicit From/To
	Basis     string // date column the window applies to; defaults to createdAt
	From      time.Time
	To        time.Time
}

// kpiBasisColumns whitelists the order date column the KPI window is
// anchored on.
var kpiBasisColumns = map[string]string{
	"createdAt":  "created_at",
	"pickupDate": "pickup_date",
}

func basisColumn(basis string) (string, error) {
	if basis == "" {
		basis = "createdAt"
	}
	col, ok := kpiBasisColumns[basis]
	if !ok {
		return "", apperr.Newf(apperr.KindValidation, "unknown basis: %s", basis)
	}
	return col, nil
}

// KPI is the order-volume and sales rollup for one period.
type KPI struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	OrderCount      int64           `json:"orderCount"`
	SalesTotal      decimal.Decimal `json:"salesTotal"`
	SalesAverage    decimal.Decimal `json:"salesAverage"`
	Target          int64           `json:"target,omitempty"`
	TargetProgress  float64         `json:"targetProgress,omitempty"`
	WeeklyProgress  float64         `json:"weeklyProgress"`
	MonthlyProgress float64         `json:"monthlyProgress"`
}

// KPI counts orders and sums sales-side charge amounts for a KST week,
// month or explicit range, and reports progress against the fixed targets.
func (s *Service) KPI(ctx context.Context, in KPIInput) (*KPI, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	col, err := basisColumn(in.Basis)
	if err != nil {
		return nil, err
	}

	var from, to time.Time
	var target int64
	switch in.Period {
	case "week":
		from, to = WeekRange(s.now())
		target = weeklyOrderTarget
	case "month", "":
		from, to = MonthRange(s.now())
		target = monthlyOrderTarget
	case "custom":
		if in.From.IsZero() || in.To.IsZero() || !in.To.After(in.From) {
			return nil, apperr.Validation("custom period requires a valid from/to range")
		}
		from, to = in.From, in.To
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown period: %s", in.Period)
	}

	// pickup_date is stored as a YYYY-MM-DD string, not a timestamp.
	var lo, hi any = from, to
	if col == "pickup_date" {
		lo, hi = from.Format("2006-01-02"), to.Format("2006-01-02")
	}

	ordersQ := s.db.WithContext(ctx).Model(&order.Order{}).
		Where(col+" >= ? AND "+col+" < ?", lo, hi).
		Where("is_canceled = ?", false)
	if in.CompanyID != "" {
		ordersQ = ordersQ.Where("company_id = ?", in.CompanyID)
	}
	var count int64
	if err := ordersQ.Count(&count).Error; err != nil {
		return nil, err
	}

	salesQ := s.db.WithContext(ctx).Table("charge_lines AS l").
		Select("COALESCE(SUM(l.amount), 0)").
		Joins("JOIN charge_groups AS g ON g.id = l.group_id").
		Joins("JOIN orders AS o ON o.id = g.order_id").
		Where("l.side = ?", "sales").
		Where("o."+col+" >= ? AND o."+col+" < ?", lo, hi)
	if in.CompanyID != "" {
		salesQ = salesQ.Where("o.company_id = ?", in.CompanyID)
	}
	var total decimal.Decimal
	if err := salesQ.Scan(&total).Error; err != nil {
		return nil, err
	}

	k := &KPI{
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
		OrderCount: count,
		SalesTotal: total,
		Target:     target,
	}
	if count > 0 {
		k.SalesAverage = total.Div(decimal.NewFromInt(count)).Round(0)
	}
	if target > 0 {
		k.TargetProgress = float64(count) / float64(target)
	}
	k.WeeklyProgress = float64(count) / float64(weeklyOrderTarget)
	k.MonthlyProgress = float64(count) / float64(monthlyOrderTarget)
	return k, nil
}

// StatusCount is one histogram bucket of the status rollup.
type StatusCount struct {
	FlowStatus string `gorm:"column:flow_status" json:"flowStatus"`
	Count      int64  `gorm:"column:cnt" json:"count"`
}

// StatusStats groups orders by flowStatus for a pickup-date window.
func (s *Service) StatusStats(ctx context.Context, companyID, dateFrom, dateTo string) ([]StatusCount, int64, error) {
	if s == nil || s.db == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}

	q := s.db.WithContext(ctx).Model(&order.Order{}).
		Select("flow_status, COUNT(*) AS cnt").
		Where("is_canceled = ?", false)
	if companyID != "" {
		q = q.Where("company_id = ?", companyID)
	}
	if dateFrom != "" {
		q = q.Where("pickup_date >= ?", dateFrom)
	}
	if dateTo != "" {
		q = q.Where("pickup_date <= ?", dateTo)
	}

	var counts []StatusCount
	if err := q.Group("flow_status").Scan(&counts).Error; err != nil {
		return nil, 0, err
	}
	var total int64
	for _, c := range counts {
		total += c.Count
	}
	return counts, total, nil
}
