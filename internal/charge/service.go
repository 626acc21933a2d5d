package charge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
	"github.com/cargolink/cargolink/internal/order"
	"github.com/cargolink/cargolink/internal/snapshot"
)

// DispatchGuard answers whether a dispatch still accepts charge writes.
// The dispatch service implements it; a closed dispatch fails with
// Forbidden.
type DispatchGuard interface {
	EnsureOpen(ctx context.Context, dispatchID string) error
}

type Service struct {
	db     *gorm.DB
	repo   *Repo
	orders *order.Repo
	guard  DispatchGuard
	logs   *changelog.Logger
}

func NewService(db *gorm.DB, guard DispatchGuard, logs *changelog.Logger) *Service {
	return &Service{
		db:     db,
		repo:   NewRepo(db),
		orders: order.NewRepo(db),
		guard:  guard,
		logs:   logs,
	}
}

type CreateGroupInput struct {
	OrderID     string
	DispatchID  string
	Stage       Stage
	Reason      string
	Description string
}

// CreateGroup opens a new charge bucket for an order. Multiple groups per
// order are allowed.
func (s *Service) CreateGroup(ctx context.Context, in CreateGroupInput, actor auth.Actor) (*Group, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !in.Stage.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "invalid stage: %s", in.Stage)
	}
	if in.Reason == "" {
		return nil, apperr.Validation("reason required")
	}
	if _, err := s.orders.GetByID(ctx, in.OrderID); err != nil {
		return nil, err
	}
	if in.DispatchID != "" && s.guard != nil {
		if err := s.guard.EnsureOpen(ctx, in.DispatchID); err != nil {
			return nil, err
		}
	}

	g := &Group{
		ID:              uuid.NewString(),
		OrderID:         in.OrderID,
		DispatchID:      in.DispatchID,
		Stage:           in.Stage,
		Reason:          in.Reason,
		Description:     in.Description,
		Lines:           []Line{},
		CreatedBy:       actor.ID,
		UpdatedBy:       actor.ID,
		UpdatedSnapshot: snapshot.ActorOf(actor),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateGroup(ctx, g); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   in.OrderID,
			Actor:      actor,
			ChangeType: "createChargeGroup",
			NewData:    g,
		})
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

type UpdateGroupInput struct {
	Stage       *Stage
	Reason      *string
	Description *string
}

// UpdateGroup patches group metadata. The conditional update in the repo
// rejects the write when the group is locked.
func (s *Service) UpdateGroup(ctx context.Context, id string, in UpdateGroupInput, actor auth.Actor) (*Group, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	updates := map[string]any{}
	if in.Stage != nil {
		if !in.Stage.Valid() {
			return nil, apperr.Newf(apperr.KindValidation, "invalid stage: %s", *in.Stage)
		}
		updates["stage"] = *in.Stage
	}
	if in.Reason != nil {
		if *in.Reason == "" {
			return nil, apperr.Validation("reason cannot be empty")
		}
		updates["reason"] = *in.Reason
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("no fields to update")
	}
	updates["updated_by"] = actor.ID
	updates["updated_snapshot"] = snapshot.ActorOf(actor)

	if err := s.repo.UpdateGroupColumns(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.GetGroup(ctx, id)
}

// DeleteGroup removes an unlocked group and all its lines.
func (s *Service) DeleteGroup(ctx context.Context, id string, actor auth.Actor) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		old, err := repo.GetGroup(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteGroup(ctx, id); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   old.OrderID,
			Actor:      actor,
			ChangeType: "deleteChargeGroup",
			OldData:    old,
		})
	})
}

// Lock freezes a group against further writes.
func (s *Service) Lock(ctx context.Context, id string, actor auth.Actor) error {
	return s.setLocked(ctx, id, true, actor)
}

// Unlock is the only mutation a locked group accepts.
func (s *Service) Unlock(ctx context.Context, id string, actor auth.Actor) error {
	return s.setLocked(ctx, id, false, actor)
}

func (s *Service) setLocked(ctx context.Context, id string, locked bool, actor auth.Actor) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	changeType := "lockChargeGroup"
	if !locked {
		changeType = "unlockChargeGroup"
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		g, err := repo.GetGroupRow(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetLocked(ctx, id, locked); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   g.OrderID,
			Actor:      actor,
			ChangeType: changeType,
			NewData:    map[string]any{"is_locked": locked},
		})
	})
}

func (s *Service) GetGroup(ctx context.Context, id string) (*Group, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetGroup(ctx, id)
}

func (s *Service) ListGroups(ctx context.Context, orderID string, offset, limit int) ([]Group, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.ListGroups(ctx, orderID, offset, limit)
}

// groupWritable rejects writes into a locked group. Unlock is the only
// mutation that bypasses it.
func groupWritable(g *Group) error {
	if g.IsLocked {
		return apperr.Forbidden("charge group is locked")
	}
	return nil
}

// writableGroup loads a group and rejects the write when it is locked or
// its dispatch has been closed for settlement.
func (s *Service) writableGroup(ctx context.Context, groupID string) (*Group, error) {
	g, err := s.repo.GetGroupRow(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := groupWritable(g); err != nil {
		return nil, err
	}
	if g.DispatchID != "" && s.guard != nil {
		if err := s.guard.EnsureOpen(ctx, g.DispatchID); err != nil {
			return nil, err
		}
	}
	return g, nil
}

type CreateLineInput struct {
	Side      Side
	Amount    decimal.Decimal
	TaxRate   *decimal.Decimal
	TaxAmount *decimal.Decimal
	Memo      string
}

// CreateLine appends a cost entry to an unlocked group. A missing tax
// amount is derived from the rate at write time.
func (s *Service) CreateLine(ctx context.Context, groupID string, in CreateLineInput, actor auth.Actor) (*Line, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !in.Side.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "invalid side: %s", in.Side)
	}
	g, err := s.writableGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	l := &Line{
		ID:              uuid.NewString(),
		GroupID:         groupID,
		Side:            in.Side,
		Amount:          in.Amount,
		TaxRate:         in.TaxRate,
		TaxAmount:       deriveTaxAmount(in.Amount, in.TaxRate, in.TaxAmount),
		Memo:            in.Memo,
		CreatedBy:       actor.ID,
		UpdatedBy:       actor.ID,
		UpdatedSnapshot: snapshot.ActorOf(actor),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateLine(ctx, l); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   g.OrderID,
			Actor:      actor,
			ChangeType: "createChargeLine",
			NewData:    l,
		})
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

type UpdateLineInput struct {
	Amount    *decimal.Decimal
	TaxRate   *decimal.Decimal
	TaxAmount *decimal.Decimal
	Memo      *string
}

// UpdateLine patches a line under the parent group's lock. Tax is
// recomputed only when amount or rate changed and no explicit tax amount
// came with the patch.
func (s *Service) UpdateLine(ctx context.Context, lineID string, in UpdateLineInput, actor auth.Actor) (*Line, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	old, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	g, err := s.writableGroup(ctx, old.GroupID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	amount := old.Amount
	rate := old.TaxRate
	if in.Amount != nil {
		amount = *in.Amount
		updates["amount"] = *in.Amount
	}
	if in.TaxRate != nil {
		rate = in.TaxRate
		updates["tax_rate"] = *in.TaxRate
	}
	if in.Memo != nil {
		updates["memo"] = *in.Memo
	}
	switch {
	case in.TaxAmount != nil:
		updates["tax_amount"] = *in.TaxAmount
	case (in.Amount != nil || in.TaxRate != nil) && rate != nil:
		updates["tax_amount"] = TaxFor(amount, *rate)
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("no fields to update")
	}
	updates["updated_by"] = actor.ID
	updates["updated_snapshot"] = snapshot.ActorOf(actor)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateLineColumns(ctx, lineID, updates); err != nil {
			return err
		}
		updated, err := repo.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   g.OrderID,
			Actor:      actor,
			ChangeType: "updateChargeLine",
			OldData:    old,
			NewData:    updated,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetLine(ctx, lineID)
}

// DeleteLine removes a line under the parent group's lock.
func (s *Service) DeleteLine(ctx context.Context, lineID string, actor auth.Actor) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	old, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	g, err := s.writableGroup(ctx, old.GroupID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).DeleteLine(ctx, lineID); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   g.OrderID,
			Actor:      actor,
			ChangeType: "deleteChargeLine",
			OldData:    old,
		})
	})
}

func (s *Service) ListLines(ctx context.Context, f LineFilter) ([]Line, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.ListLines(ctx, f)
}

// OrderSummary is the per-order rollup used by dashboards and list views.
type OrderSummary struct {
	OrderID        string          `json:"orderId"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	SalesAmount    decimal.Decimal `json:"salesAmount"`
	PurchaseAmount decimal.Decimal `json:"purchaseAmount"`
	Profit         decimal.Decimal `json:"profit"`
}

// OrderChargeSummary aggregates every group's lines per order into sales,
// purchase and profit totals. Orders without lines come back zeroed.
func (s *Service) OrderChargeSummary(ctx context.Context, orderIDs []string) ([]OrderSummary, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if len(orderIDs) == 0 {
		return nil, apperr.Validation("orderIds required")
	}

	sums, err := s.repo.SumByOrder(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string]*OrderSummary, len(orderIDs))
	out := make([]OrderSummary, len(orderIDs))
	for i, id := range orderIDs {
		out[i] = OrderSummary{OrderID: id}
		byOrder[id] = &out[i]
	}
	for _, row := range sums {
		sum, ok := byOrder[row.OrderID]
		if !ok {
			continue
		}
		switch row.Side {
		case SideSales:
			sum.SalesAmount = row.Total
		case SidePurchase:
			sum.PurchaseAmount = row.Total
		}
	}
	for i := range out {
		out[i].TotalAmount = out[i].SalesAmount.Add(out[i].PurchaseAmount)
		out[i].Profit = out[i].SalesAmount.Sub(out[i].PurchaseAmount)
	}
	return out, nil
}

// LinesByOrder exposes the raw per-order lines for settlement.
func (s *Service) LinesByOrder(ctx context.Context, orderID string, side Side) ([]Line, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.LinesByOrder(ctx, orderID, side)
}
