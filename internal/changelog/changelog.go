// Package changelog is the append-only audit trail. Records are never
// updated or deleted.
package changelog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/common/auth"
)

type EntityType string

const (
	EntityOrder   EntityType = "order"
	EntityCompany EntityType = "company"
	EntityDriver  EntityType = "driver"
	EntityUser    EntityType = "user"
	EntityAddress EntityType = "address"
	EntityWarning EntityType = "warning"
)

// Record is one immutable change row with before/after snapshots.
type Record struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id"`
	EntityType       EntityType      `gorm:"type:varchar(16);index:idx_changelog_entity;not null" json:"entityType"`
	EntityID         string          `gorm:"size:36;index:idx_changelog_entity;not null" json:"entityId"`
	ActorID          string          `gorm:"size:36;index" json:"actorId"`
	ActorName        string          `gorm:"size:64" json:"actorName"`
	ActorEmail       string          `gorm:"size:128" json:"actorEmail"`
	ActorAccessLevel string          `gorm:"size:32" json:"actorAccessLevel"`
	ChangeType       string          `gorm:"size:32;not null" json:"changeType"`
	OldData          json.RawMessage `gorm:"type:json" json:"oldData,omitempty"`
	NewData          json.RawMessage `gorm:"type:json" json:"newData,omitempty"`
	Reason           string          `gorm:"size:255" json:"reason"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Record) TableName() string { return "change_logs" }

// Entry is what callers provide; marshalling and actor stamping happen here.
type Entry struct {
	EntityType EntityType
	EntityID   string
	Actor      auth.Actor
	ChangeType string
	OldData    any
	NewData    any
	Reason     string
}

type Logger struct {
	db *gorm.DB
}

func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// Log appends one record. A DB error propagates to the caller; whether to
// treat that as fatal is the caller's call.
func (l *Logger) Log(ctx context.Context, e Entry) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("changelog db is nil")
	}
	return l.LogTx(ctx, l.db, e)
}

// LogTx appends one record inside the caller's transaction.
func (l *Logger) LogTx(ctx context.Context, tx *gorm.DB, e Entry) error {
	if tx == nil {
		return fmt.Errorf("changelog tx is nil")
	}
	if e.EntityType == "" || e.EntityID == "" || e.ChangeType == "" {
		return fmt.Errorf("changelog entry incomplete: type=%q id=%q change=%q", e.EntityType, e.EntityID, e.ChangeType)
	}

	rec := Record{
		ID:               uuid.NewString(),
		EntityType:       e.EntityType,
		EntityID:         e.EntityID,
		ActorID:          e.Actor.ID,
		ActorName:        e.Actor.Name,
		ActorEmail:       e.Actor.Email,
		ActorAccessLevel: e.Actor.AccessLevel,
		ChangeType:       e.ChangeType,
		Reason:           e.Reason,
	}

	var err error
	if rec.OldData, err = marshal(e.OldData); err != nil {
		return fmt.Errorf("marshal old data: %w", err)
	}
	if rec.NewData, err = marshal(e.NewData); err != nil {
		return fmt.Errorf("marshal new data: %w", err)
	}

	return tx.WithContext(ctx).Create(&rec).Error
}

// List returns an entity's history, newest first.
func (l *Logger) List(ctx context.Context, entityType EntityType, entityID string, offset, limit int) ([]Record, int64, error) {
	if l == nil || l.db == nil {
		return nil, 0, fmt.Errorf("changelog db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := l.db.WithContext(ctx).Model(&Record{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []Record
	if err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func marshal(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}
