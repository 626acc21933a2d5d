package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/changelog"
	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
	"github.com/cargolink/cargolink/internal/snapshot"
)

var updatableColumns = map[string]string{
	"companyId":     "company_id",
	"name":          "name",
	"phone":         "phone",
	"vehicleNumber": "vehicle_number",
	"vehicleType":   "vehicle_type",
	"vehicleWeight": "vehicle_weight",
	"status":        "status",
	"memo":          "memo",
}

type Service struct {
	db   *gorm.DB
	repo *Repo
	logs *changelog.Logger
}

func NewService(db *gorm.DB, logs *changelog.Logger) *Service {
	return &Service{db: db, repo: NewRepo(db), logs: logs}
}

type CreateInput struct {
	CompanyID     string
	Name          string
	Phone         string
	VehicleNumber string
	VehicleType   string
	VehicleWeight string
	Memo          string
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (*Driver, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name required")
	}

	d := &Driver{
		ID:              uuid.NewString(),
		CompanyID:       in.CompanyID,
		Name:            strings.TrimSpace(in.Name),
		Phone:           strings.TrimSpace(in.Phone),
		VehicleNumber:   strings.TrimSpace(in.VehicleNumber),
		VehicleType:     in.VehicleType,
		VehicleWeight:   in.VehicleWeight,
		Status:          "active",
		Memo:            in.Memo,
		CreatedBy:       actor.ID,
		UpdatedBy:       actor.ID,
		UpdatedSnapshot: snapshot.ActorOf(actor),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, d); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityDriver,
			EntityID:   d.ID,
			Actor:      actor,
			ChangeType: "create",
			NewData:    d,
		})
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) UpdateFields(ctx context.Context, id string, fields map[string]any, actor auth.Actor, reason string) (*Driver, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("no fields to update")
	}

	var invalid []string
	updates := make(map[string]any, len(fields))
	for k, v := range fields {
		col, ok := updatableColumns[k]
		if !ok {
			invalid = append(invalid, k)
			continue
		}
		updates[col] = v
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, apperr.Validation("fields not allowed").
			WithDetails(map[string]any{"invalidFields": invalid})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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
			EntityType: changelog.EntityDriver,
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

func (s *Service) Get(ctx context.Context, id string) (*Driver, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Driver, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, f)
}
