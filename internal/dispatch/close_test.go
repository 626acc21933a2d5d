package dispatch

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
	"github.com/cargolink/cargolink/internal/order"
)

var testActor = auth.Actor{ID: "tester-1", Name: "배차담당", AccessLevel: "dispatcher"}

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
	if err := db.AutoMigrate(&changelog.Record{}, &Dispatch{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, changelog.NewLogger(db)), db
}

func seedDispatch(t *testing.T, db *gorm.DB) *Dispatch {
	t.Helper()
	d := &Dispatch{
		ID:               uuid.NewString(),
		OrderID:          uuid.NewString(),
		BrokerFlowStatus: order.FlowDispatchDone,
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("seed dispatch: %v", err)
	}
	return d
}

func TestCloseMarksClosedAndWritesAudit(t *testing.T) {
	svc, db := newTestService(t)
	d := seedDispatch(t, db)

	if err := svc.Close(context.Background(), d.ID, testActor); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got Dispatch
	if err := db.Where("id = ?", d.ID).First(&got).Error; err != nil {
		t.Fatalf("reload dispatch: %v", err)
	}
	if !got.IsClosed {
		t.Fatalf("dispatch not closed")
	}

	var n int64
	if err := db.Model(&changelog.Record{}).
		Where("entity_id = ? AND change_type = ?", d.OrderID, "closeDispatch").
		Count(&n).Error; err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one closeDispatch audit row, got %d", n)
	}
}

func TestEnsureOpenClosedDispatchForbidden(t *testing.T) {
	svc, db := newTestService(t)
	d := seedDispatch(t, db)
	if err := svc.Close(context.Background(), d.ID, testActor); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := svc.EnsureOpen(context.Background(), d.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for closed dispatch, got %v", err)
	}
}

func TestCloseAuditFailureLeavesDispatchOpen(t *testing.T) {
	svc, db := newTestService(t)
	d := seedDispatch(t, db)
	if err := db.Migrator().DropTable(&changelog.Record{}); err != nil {
		t.Fatalf("drop changelog table: %v", err)
	}

	if err := svc.Close(context.Background(), d.ID, testActor); err == nil {
		t.Fatalf("expected close to fail when the audit write fails")
	}

	var got Dispatch
	if err := db.Where("id = ?", d.ID).First(&got).Error; err != nil {
		t.Fatalf("reload dispatch: %v", err)
	}
	if got.IsClosed {
		t.Fatalf("settlement lock flipped although the audit row was not written")
	}
}
