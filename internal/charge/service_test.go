package charge

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
)

var testActor = auth.Actor{ID: "tester-1", Name: "정산담당", AccessLevel: "dispatcher"}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
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
	if err := db.AutoMigrate(&changelog.Record{}, &Group{}, &Line{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, nil, changelog.NewLogger(db)), db
}

func seedGroup(t *testing.T, db *gorm.DB, locked bool) *Group {
	t.Helper()
	g := &Group{
		ID:       uuid.NewString(),
		OrderID:  uuid.NewString(),
		Stage:    StageProgress,
		Reason:   "base_freight",
		IsLocked: locked,
		Lines:    []Line{},
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}
	return g
}

func TestGroupWritable(t *testing.T) {
	if err := groupWritable(&Group{IsLocked: true}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for locked group, got %v", err)
	}
	if err := groupWritable(&Group{}); err != nil {
		t.Fatalf("unlocked group rejected: %v", err)
	}
}

func TestCreateLineLockedGroupForbidden(t *testing.T) {
	svc, db := newTestService(t)
	g := seedGroup(t, db, true)

	_, err := svc.CreateLine(context.Background(), g.ID, CreateLineInput{
		Side:   SideSales,
		Amount: decimal.NewFromInt(100000),
	}, testActor)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	var n int64
	if err := db.Model(&Line{}).Count(&n).Error; err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if n != 0 {
		t.Fatalf("line persisted into a locked group")
	}
}

func TestUpdateAndDeleteLineLockedGroupForbidden(t *testing.T) {
	svc, db := newTestService(t)
	g := seedGroup(t, db, false)
	l, err := svc.CreateLine(context.Background(), g.ID, CreateLineInput{
		Side:   SidePurchase,
		Amount: decimal.NewFromInt(50000),
	}, testActor)
	if err != nil {
		t.Fatalf("create line: %v", err)
	}
	if err := db.Model(&Group{}).Where("id = ?", g.ID).Update("is_locked", true).Error; err != nil {
		t.Fatalf("lock group: %v", err)
	}

	amount := decimal.NewFromInt(60000)
	if _, err := svc.UpdateLine(context.Background(), l.ID, UpdateLineInput{Amount: &amount}, testActor); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden on update, got %v", err)
	}
	if err := svc.DeleteLine(context.Background(), l.ID, testActor); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden on delete, got %v", err)
	}
}

func TestLockAuditFailureLeavesGroupUnlocked(t *testing.T) {
	svc, db := newTestService(t)
	g := seedGroup(t, db, false)
	if err := db.Migrator().DropTable(&changelog.Record{}); err != nil {
		t.Fatalf("drop changelog table: %v", err)
	}

	if err := svc.Lock(context.Background(), g.ID, testActor); err == nil {
		t.Fatalf("expected lock to fail when the audit write fails")
	}

	var got Group
	if err := db.Where("id = ?", g.ID).First(&got).Error; err != nil {
		t.Fatalf("reload group: %v", err)
	}
	if got.IsLocked {
		t.Fatalf("lock flag flipped although the audit row was not written")
	}
}
