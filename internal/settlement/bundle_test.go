package settlement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/charge"
	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
)

var testActor = auth.Actor{ID: "tester-1", Name: "정산담당", AccessLevel: "admin"}

func newBundleTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&changelog.Record{}, &Bundle{}, &BundleItem{}, &ItemAdjustment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, changelog.NewLogger(db)), db
}

func seedBundleWithItem(t *testing.T, db *gorm.DB, base int64) (*Bundle, *BundleItem) {
	t.Helper()
	b := &Bundle{
		ID:     uuid.NewString(),
		Type:   charge.SideSales,
		Name:   "3월 매출 정산",
		Status: "open",
		Total:  decimal.NewFromInt(base),
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("seed bundle: %v", err)
	}
	item := &BundleItem{
		ID:         uuid.NewString(),
		BundleID:   b.ID,
		InvoiceID:  uuid.NewString(),
		OrderID:    uuid.NewString(),
		BaseAmount: decimal.NewFromInt(base),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed bundle item: %v", err)
	}
	return b, item
}

func TestAddAdjustmentAccumulatesBundleTotal(t *testing.T) {
	svc, db := newBundleTestService(t)
	b, item := seedBundleWithItem(t, db, 100000)

	tax := decimal.NewFromInt(2000)
	if _, err := svc.AddAdjustment(context.Background(), item.ID, AdjustmentInput{
		Label:     "대기료",
		Amount:    decimal.NewFromInt(20000),
		TaxAmount: &tax,
	}, testActor); err != nil {
		t.Fatalf("first adjustment: %v", err)
	}
	if _, err := svc.AddAdjustment(context.Background(), item.ID, AdjustmentInput{
		Label:  "운임 할인",
		Amount: decimal.NewFromInt(-5000),
	}, testActor); err != nil {
		t.Fatalf("second adjustment: %v", err)
	}

	var got Bundle
	if err := db.Where("id = ?", b.ID).First(&got).Error; err != nil {
		t.Fatalf("reload bundle: %v", err)
	}
	want := decimal.NewFromInt(117000)
	if !got.Total.Equal(want) {
		t.Fatalf("bundle total = %s, want %s", got.Total, want)
	}
}

func TestAddAdjustmentFinalizedBundleRejected(t *testing.T) {
	svc, db := newBundleTestService(t)
	b, item := seedBundleWithItem(t, db, 100000)
	if err := db.Model(&Bundle{}).Where("id = ?", b.ID).Update("status", "finalized").Error; err != nil {
		t.Fatalf("finalize bundle: %v", err)
	}

	_, err := svc.AddAdjustment(context.Background(), item.ID, AdjustmentInput{
		Label:  "대기료",
		Amount: decimal.NewFromInt(20000),
	}, testActor)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for finalized bundle, got %v", err)
	}

	var n int64
	if err := db.Model(&ItemAdjustment{}).Count(&n).Error; err != nil {
		t.Fatalf("count adjustments: %v", err)
	}
	if n != 0 {
		t.Fatalf("adjustment persisted against a finalized bundle")
	}
}

func TestAdjustmentDelta(t *testing.T) {
	tax := decimal.NewFromInt(2000)
	cases := []struct {
		in   AdjustmentInput
		want int64
	}{
		{AdjustmentInput{Amount: decimal.NewFromInt(20000)}, 20000},
		{AdjustmentInput{Amount: decimal.NewFromInt(20000), TaxAmount: &tax}, 22000},
		{AdjustmentInput{Amount: decimal.NewFromInt(-5000)}, -5000},
	}
	for _, c := range cases {
		if got := adjustmentDelta(c.in); !got.Equal(decimal.NewFromInt(c.want)) {
			t.Fatalf("adjustmentDelta(%s) = %s, want %d", c.in.Amount, got, c.want)
		}
	}
}
