package user

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
	"name":        "name",
	"phone":       "phone",
	"accessLevel": "access_level",
	"companyId":   "company_id",
	"status":      "status",
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
	Email       string
	Password    string
	Name        string
	Phone       string
	AccessLevel string
	CompanyID   string
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, apperr.Validation("email required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if in.AccessLevel == "" {
		in.AccessLevel = "viewer"
	}
	switch in.AccessLevel {
	case "viewer", "dispatcher", "admin":
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown access level: %s", in.AccessLevel)
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password, salt)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:              uuid.NewString(),
		Email:           in.Email,
		PasswordHash:    hash,
		PasswordSalt:    salt,
		Name:            strings.TrimSpace(in.Name),
		Phone:           strings.TrimSpace(in.Phone),
		AccessLevel:     in.AccessLevel,
		CompanyID:       in.CompanyID,
		Status:          "active",
		CreatedBy:       actor.ID,
		UpdatedBy:       actor.ID,
		UpdatedSnapshot: snapshot.ActorOf(actor),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityUser,
			EntityID:   u.ID,
			Actor:      actor,
			ChangeType: "create",
			NewData:    u,
		})
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials and returns the actor identity to embed
// in a token. Wrong email and wrong password answer the same way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (auth.Actor, error) {
	if s == nil || s.repo == nil {
		return auth.Actor{}, fmt.Errorf("service not initialized")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return auth.Actor{}, apperr.Unauthorized("invalid credentials")
		}
		return auth.Actor{}, err
	}
	if !VerifyPassword(password, u.PasswordSalt, u.PasswordHash) {
		return auth.Actor{}, apperr.Unauthorized("invalid credentials")
	}
	if u.Status != "active" {
		return auth.Actor{}, apperr.Forbidden("account is suspended")
	}
	return u.Actor(), nil
}

func (s *Service) ChangePassword(ctx context.Context, id, current, next string, actor auth.Actor) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	if len(next) < 8 {
		return apperr.Validation("password must be at least 8 characters")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !VerifyPassword(current, u.PasswordSalt, u.PasswordHash) {
		return apperr.Unauthorized("invalid credentials")
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return err
	}
	hash, err := HashPassword(next, salt)
	if err != nil {
		return err
	}
	return s.repo.UpdateColumns(ctx, id, map[string]any{
		"password_hash":    hash,
		"password_salt":    salt,
		"updated_by":       actor.ID,
		"updated_snapshot": snapshot.ActorOf(actor),
	})
}

func (s *Service) UpdateFields(ctx context.Context, id string, fields map[string]any, actor auth.Actor, reason string) (*User, error) {
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
			EntityType: changelog.EntityUser,
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

func (s *Service) UpdateStatus(ctx context.Context, id, status string, actor auth.Actor, reason string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	switch status {
	case "active", "suspended":
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown status: %s", status)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		old, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.UpdateColumns(ctx, id, map[string]any{
			"status":           status,
			"updated_by":       actor.ID,
			"updated_snapshot": snapshot.ActorOf(actor),
		}); err != nil {
			return err
		}
		updated, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return s.logs.LogTx(ctx, tx, changelog.Entry{
			EntityType: changelog.EntityUser,
			EntityID:   id,
			Actor:      actor,
			ChangeType: "updateStatus",
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

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, companyID, status string, offset, limit int) ([]User, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, companyID, status, offset, limit)
}
