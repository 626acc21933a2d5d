package address

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
	"name":       "name",
	"roadAddr":   "road_addr",
	"detailAddr": "detail_addr",
	"contact":    "contact",
	"latitude":   "latitude",
	"longitude":  "longitude",
	"memo":       "memo",
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
	CompanyID  string
	Name       string
	RoadAddr   string
	DetailAddr string
	Contact    string
	Latitude   float64
	Longitude  float64
	Memo       string
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (*Address, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name required")
	}

	a := &Address{
		ID:              uuid.NewString(),
		CompanyID:       in.CompanyID,
		Name:            strings.TrimSpace(in.Name),
		RoadAddr:        strings.TrimSpace(in.RoadAddr),
		DetailAddr:      strings.TrimSpace(in.DetailAddr),
		Contact:         strings.TrimSpace(in.Contact),
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		Memo:            in.Memo,
		CreatedBy:       actor.ID,
		UpdatedBy:       actor.ID,
		UpdatedSnapshot: snapshot.ActorOf(actor),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, a); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityAddress,
			EntityID:   a.ID,
			Actor:      actor,
			ChangeType: "create",
			NewData:    a,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateFields(ctx context.Context, id string, fields map[string]any, actor auth.Actor, reason string) (*Address, error) {
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
			EntityType: changelog.EntityAddress,
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
			EntityType: changelog.EntityAddress,
			EntityID:   id,
			Actor:      actor,
			ChangeType: "delete",
			OldData:    old,
		})
	})
}

func (s *Service) Get(ctx context.Context, id string) (*Address, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, companyID, keyword string, offset, limit int) ([]Address, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, companyID, keyword, offset, limit)
}
