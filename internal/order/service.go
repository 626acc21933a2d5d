package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
	"github.com/cargolink/cargolink/internal/snapshot"
)

// DistanceResolver estimates the road distance between two addresses.
// Resolution failures are non-fatal: the order is stored without an
// estimate.
type DistanceResolver interface {
	Lookup(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Service owns the order lifecycle: registration, field patches, flow
// status changes and batch actions.
type Service struct {
	db       *gorm.DB
	repo     *Repo
	logs     *changelog.Logger
	distance DistanceResolver
}

func NewService(db *gorm.DB, logs *changelog.Logger, distance DistanceResolver) *Service {
	return &Service{
		db:       db,
		repo:     NewRepo(db),
		logs:     logs,
		distance: distance,
	}
}

type CreateInput struct {
	CompanyID              string
	ContactName            string
	ContactPhone           string
	CargoName              string
	RequestedVehicleType   string
	RequestedVehicleWeight string
	PickupAddress          snapshot.Address
	DeliveryAddress        snapshot.Address
	PickupDate             string
	PickupTime             string
	DeliveryDate           string
	DeliveryTime           string
	EstimatedDistanceKm    decimal.Decimal
	EstimatedAmount        decimal.Decimal
	PriceType              string
	TaxType                string
	Memo                   string
}

// Create registers a new transport request in 운송요청 state.
func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (*Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(in.CargoName) == "" {
		return nil, apperr.Validation("cargoName required")
	}
	companyID := strings.TrimSpace(in.CompanyID)
	if companyID == "" {
		companyID = actor.CompanyID
	}
	if companyID == "" {
		return nil, apperr.Validation("companyId required")
	}

	o := &Order{
		ID:                     uuid.NewString(),
		CompanyID:              companyID,
		ContactName:            strings.TrimSpace(in.ContactName),
		ContactPhone:           strings.TrimSpace(in.ContactPhone),
		FlowStatus:             FlowRequested,
		CargoName:              strings.TrimSpace(in.CargoName),
		RequestedVehicleType:   strings.TrimSpace(in.RequestedVehicleType),
		RequestedVehicleWeight: strings.TrimSpace(in.RequestedVehicleWeight),
		PickupAddress:          in.PickupAddress,
		DeliveryAddress:        in.DeliveryAddress,
		PickupDate:             in.PickupDate,
		PickupTime:             in.PickupTime,
		DeliveryDate:           in.DeliveryDate,
		DeliveryTime:           in.DeliveryTime,
		EstimatedDistanceKm:    in.EstimatedDistanceKm,
		EstimatedAmount:        in.EstimatedAmount,
		PriceType:              in.PriceType,
		TaxType:                in.TaxType,
		Memo:                   in.Memo,
		CreatedBy:              actor.ID,
		UpdatedBy:              actor.ID,
		CreatedSnapshot:        snapshot.ActorOf(actor),
		UpdatedSnapshot:        snapshot.ActorOf(actor),
	}

	if o.EstimatedDistanceKm.IsZero() && s.distance != nil &&
		o.PickupAddress.RoadAddr != "" && o.DeliveryAddress.RoadAddr != "" {
		if km, err := s.distance.Lookup(ctx, o.PickupAddress.RoadAddr, o.DeliveryAddress.RoadAddr); err == nil {
			o.EstimatedDistanceKm = km
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, o); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   o.ID,
			Actor:      actor,
			ChangeType: "create",
			NewData:    o,
		})
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// StatusChange reports a flow transition back to the caller.
type StatusChange struct {
	PreviousStatus FlowStatus `json:"previousStatus"`
	CurrentStatus  FlowStatus `json:"currentStatus"`
}

// UpdateStatus moves an order to another flow state. Canceled orders and
// no-op transitions (same state) are rejected; any other enum member is
// accepted, forward or backward.
func (s *Service) UpdateStatus(ctx context.Context, id string, to FlowStatus, actor auth.Actor, reason string) (*StatusChange, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if !to.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown flow status: %s", to)
	}

	var change *StatusChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		o, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := canTransition(o, to); err != nil {
			return err
		}

		old := *o
		if err := repo.UpdateColumns(ctx, id, map[string]any{
			"flow_status":      to,
			"updated_by":       actor.ID,
			"updated_snapshot": snapshot.ActorOf(actor),
		}); err != nil {
			return err
		}
		o.FlowStatus = to

		if err := s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   o.ID,
			Actor:      actor,
			ChangeType: "updateStatus",
			OldData:    old,
			NewData:    o,
			Reason:     reason,
		}); err != nil {
			return err
		}

		change = &StatusChange{PreviousStatus: old.FlowStatus, CurrentStatus: to}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// UpdateFields applies an allow-listed patch and returns the updated row.
func (s *Service) UpdateFields(ctx context.Context, id string, fields map[string]any, actor auth.Actor, reason string) (*Order, error) {
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

		updates["updated_by"] = actor.ID
		updates["updated_snapshot"] = snapshot.ActorOf(actor)
		if err := repo.UpdateColumns(ctx, id, updates); err != nil {
			return err
		}

		updated, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   id,
			Actor:      actor,
			ChangeType: "updateFields",
			OldData:    old,
			NewData:    updated,
			Reason:     reason,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Cancel soft-cancels one order. Cancellation is terminal.
func (s *Service) Cancel(ctx context.Context, id string, actor auth.Actor, reason, changeType string) error {
	if changeType == "" {
		changeType = "cancel"
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		o, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.IsCanceled {
			return apperr.Validation("order is already canceled")
		}

		old := *o
		if err := repo.UpdateColumns(ctx, id, map[string]any{
			"is_canceled":      true,
			"updated_by":       actor.ID,
			"updated_snapshot": snapshot.ActorOf(actor),
		}); err != nil {
			return err
		}
		o.IsCanceled = true

		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityOrder,
			EntityID:   id,
			Actor:      actor,
			ChangeType: changeType,
			OldData:    old,
			NewData:    o,
			Reason:     reason,
		})
	})
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Order, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, f)
}
