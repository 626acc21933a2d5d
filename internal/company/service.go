package company

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
	"name":               "name",
	"businessNumber":     "business_number",
	"representativeName": "representative_name",
	"phone":              "phone",
	"email":              "email",
	"address":            "address",
	"companyType":        "company_type",
	"status":             "status",
	"memo":               "memo",
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
	Name               string
	BusinessNumber     string
	RepresentativeName string
	Phone              string
	Email              string
	Address            string
	CompanyType        string
	Memo               string
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (*Company, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name required")
	}
	switch in.CompanyType {
	case "shipper", "broker", "carrier":
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown company type: %s", in.CompanyType)
	}

	c := &Company{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(in.Name),
		BusinessNumber:     strings.TrimSpace(in.BusinessNumber),
		RepresentativeName: strings.TrimSpace(in.RepresentativeName),
		Phone:              strings.TrimSpace(in.Phone),
		Email:              strings.TrimSpace(in.Email),
		Address:            strings.TrimSpace(in.Address),
		CompanyType:        in.CompanyType,
		Status:             "active",
		Memo:               in.Memo,
		CreatedBy:          actor.ID,
		UpdatedBy:          actor.ID,
		UpdatedSnapshot:    snapshot.ActorOf(actor),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, c); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityCompany,
			EntityID:   c.ID,
			Actor:      actor,
			ChangeType: "create",
			NewData:    c,
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateFields(ctx context.Context, id string, fields map[string]any, actor auth.Actor, reason string) (*Company, error) {
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
			EntityType: changelog.EntityCompany,
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

func (s *Service) Get(ctx context.Context, id string) (*Company, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, companyType, status string, offset, limit int) ([]Company, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, companyType, status, offset, limit)
}
