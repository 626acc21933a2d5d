package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
	"github.com/cargolink/cargolink/internal/company"
	"github.com/cargolink/cargolink/internal/driver"
	"github.com/cargolink/cargolink/internal/order"
	"github.com/cargolink/cargolink/internal/snapshot"
)

type Service struct {
	db        *gorm.DB
	repo      *Repo
	orders    *order.Repo
	drivers   *driver.Repo
	companies *company.Repo
	logs      *changelog.Logger
}

func NewService(db *gorm.DB, logs *changelog.Logger) *Service {
	return &Service{
		db:        db,
		repo:      NewRepo(db),
		orders:    order.NewRepo(db),
		drivers:   driver.NewRepo(db),
		companies: company.NewRepo(db),
		logs:      logs,
	}
}

// AcceptDispatches claims a batch of orders for the acting broker. Every
// order moves to 배차대기 and gets a dispatch row in one transaction, so a
// failure on any order rolls back the whole batch.
func (s *Service) AcceptDispatches(ctx context.Context, orderIDs []string, actor auth.Actor) ([]Dispatch, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if len(orderIDs) == 0 {
		return nil, apperr.Validation("orderIds required")
	}

	var brokerSnap snapshot.Company
	if actor.CompanyID != "" {
		c, err := s.companies.GetByID(ctx, actor.CompanyID)
		if err != nil {
			return nil, err
		}
		brokerSnap = c.Snapshot()
	}

	created := make([]Dispatch, 0, len(orderIDs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		dispatchRepo := s.repo.WithTx(tx)

		for _, orderID := range orderIDs {
			o, err := orderRepo.GetByID(ctx, orderID)
			if err != nil {
				return err
			}
			if o.IsCanceled {
				return apperr.Newf(apperr.KindValidation, "order %s is canceled", orderID)
			}
			exists, err := dispatchRepo.ExistsForOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if exists {
				return apperr.Newf(apperr.KindConflict, "order %s already dispatched", orderID)
			}

			if err := orderRepo.UpdateColumns(ctx, orderID, map[string]any{
				"flow_status":      string(order.FlowDispatchWait),
				"updated_by":       actor.ID,
				"updated_snapshot": snapshot.ActorOf(actor),
			}); err != nil {
				return err
			}

			d := Dispatch{
				ID:                    uuid.NewString(),
				OrderID:               orderID,
				BrokerCompanyID:       actor.CompanyID,
				BrokerCompanySnapshot: brokerSnap,
				BrokerManagerID:       actor.ID,
				BrokerManagerSnapshot: snapshot.ActorOf(actor),
				BrokerFlowStatus:      order.FlowDispatchWait,
				CreatedBy:             actor.ID,
				UpdatedBy:             actor.ID,
				UpdatedSnapshot:       snapshot.ActorOf(actor),
			}
			if err := dispatchRepo.Create(ctx, &d); err != nil {
				return err
			}

			if err := s.logs.LogTx(ctx, tx, changelog.Entry{
				EntityType: changelog.EntityOrder,
				EntityID:   orderID,
				Actor:      actor,
				ChangeType: "acceptDispatch",
				NewData:    d,
			}); err != nil {
				return err
			}
			created = append(created, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type CreateInput struct {
	DriverID          string
	VehicleNumber     string
	VehicleType       string
	VehicleWeight     string
	AgreedFreightCost decimal.Decimal
	BrokerMemo        string
}

// Create assigns a driver to an order. Fails with Conflict when the order
// already has a dispatch and NotFound when the order or driver is missing.
func (s *Service) Create(ctx context.Context, orderID string, in CreateInput, actor auth.Actor) (*Detail, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if in.DriverID == "" {
		return nil, apperr.Validation("driverId required")
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	drv, err := s.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("order already dispatched")
	}

	var brokerSnap snapshot.Company
	if actor.CompanyID != "" {
		if c, err := s.companies.GetByID(ctx, actor.CompanyID); err == nil {
			brokerSnap = c.Snapshot()
		}
	}

	vehicleNumber := in.VehicleNumber
	if vehicleNumber == "" {
		vehicleNumber = drv.VehicleNumber
	}
	vehicleType := in.VehicleType
	if vehicleType == "" {
		vehicleType = drv.VehicleType
	}
	vehicleWeight := in.VehicleWeight
	if vehicleWeight == "" {
		vehicleWeight = drv.VehicleWeight
	}

	d := &Dispatch{
		ID:                    uuid.NewString(),
		OrderID:               orderID,
		BrokerCompanyID:       actor.CompanyID,
		BrokerCompanySnapshot: brokerSnap,
		BrokerManagerID:       actor.ID,
		BrokerManagerSnapshot: snapshot.ActorOf(actor),
		AssignedDriverID:      drv.ID,
		DriverSnapshot:        drv.Snapshot(),
		VehicleNumber:         vehicleNumber,
		VehicleType:           vehicleType,
		VehicleWeight:         vehicleWeight,
		AgreedFreightCost:     in.AgreedFreightCost,
		BrokerFlowStatus:      order.FlowDispatchDone,
		BrokerMemo:            in.BrokerMemo,
		CreatedBy:             actor.ID,
		UpdatedBy:             actor.ID,
		UpdatedSnapshot:       snapshot.ActorOf(actor),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, d); err != nil {
			return err
		}
		if err := s.orders.WithTx(tx).UpdateColumns(ctx, orderID, map[string]any{
			"flow_status":      string(order.FlowDispatchDone),
			"updated_by":       actor.ID,
			"updated_snapshot": snapshot.ActorOf(actor),
		}); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   orderID,
			Actor:      actor,
			ChangeType: "createDispatch",
			NewData:    d,
		})
	})
	if err != nil {
		return nil, err
	}

	o.FlowStatus = order.FlowDispatchDone
	return &Detail{Order: o, Dispatch: d}, nil
}

// UpdateFields applies an allow-listed patch. A brokerFlowStatus change is
// mirrored onto the linked order's flowStatus inside the same transaction,
// and the change log records only the columns whose value actually changed.
func (s *Service) UpdateFields(ctx context.Context, id string, fields map[string]any, actor auth.Actor, reason string) (*Dispatch, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	updates, err := BuildFieldUpdates(fields)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		old, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		oldDiff := make(map[string]any)
		newDiff := make(map[string]any)
		for col, v := range updates {
			prev := columnValue(old, col)
			if fmt.Sprint(prev) != fmt.Sprint(v) {
				oldDiff[col] = prev
				newDiff[col] = v
			}
		}

		if driverID, ok := updates["assigned_driver_id"].(string); ok && driverID != old.AssignedDriverID {
			drv, err := s.drivers.WithTx(tx).GetByID(ctx, driverID)
			if err != nil {
				return err
			}
			updates["driver_snapshot"] = drv.Snapshot()
		}

		updates["updated_by"] = actor.ID
		updates["updated_snapshot"] = snapshot.ActorOf(actor)
		if err := repo.UpdateColumns(ctx, id, updates); err != nil {
			return err
		}

		if status, ok := updates["broker_flow_status"].(string); ok {
			if err := s.orders.WithTx(tx).UpdateColumns(ctx, old.OrderID, map[string]any{
				"flow_status":      status,
				"updated_by":       actor.ID,
				"updated_snapshot": snapshot.ActorOf(actor),
			}); err != nil {
				return err
			}
		}

		if len(newDiff) == 0 {
			return nil
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   old.OrderID,
			Actor:      actor,
			ChangeType: "updateDispatch",
			OldData:    oldDiff,
			NewData:    newDiff,
			Reason:     reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a dispatch row outright.
func (s *Service) Delete(ctx context.Context, id string, actor auth.Actor) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		old, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   old.OrderID,
			Actor:      actor,
			ChangeType: "deleteDispatch",
			OldData:    old,
		})
	})
}

// Close flips the settlement lock. Charge and settlement writes check this
// flag through EnsureOpen.
func (s *Service) Close(ctx context.Context, id string, actor auth.Actor) error {
	return s.setClosed(ctx, id, true, "closeDispatch", actor)
}

func (s *Service) Reopen(ctx context.Context, id string, actor auth.Actor) error {
	return s.setClosed(ctx, id, false, "reopenDispatch", actor)
}

func (s *Service) setClosed(ctx context.Context, id string, closed bool, changeType string, actor auth.Actor) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		d, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetClosed(ctx, id, closed); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   d.OrderID,
			Actor:      actor,
			ChangeType: changeType,
			NewData:    map[string]any{"is_closed": closed},
		})
	})
}

// EnsureOpen fails with Forbidden when the dispatch is settlement-locked.
// The charge ledger consults this before accepting writes.
func (s *Service) EnsureOpen(ctx context.Context, dispatchID string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	d, err := s.repo.GetByID(ctx, dispatchID)
	if err != nil {
		return err
	}
	if d.IsClosed {
		return apperr.Forbidden("dispatch is closed")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, d.OrderID)
	if err != nil {
		return nil, err
	}
	return &Detail{Order: o, Dispatch: d}, nil
}

func (s *Service) GetByOrder(ctx context.Context, orderID string) (*Dispatch, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetByOrderID(ctx, orderID)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Dispatch, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, f)
}
