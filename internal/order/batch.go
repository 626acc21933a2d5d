package order

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/common/auth"
)

type BatchAction string

const (
	BatchCancel       BatchAction = "cancel"
	BatchDelete       BatchAction = "delete" // soft-cancel; orders are never hard-deleted
	BatchUpdateStatus BatchAction = "updateStatus"
)

// Atomicity makes the transactional boundary of a batch an explicit
// parameter instead of an accident of call shape.
type Atomicity string

const (
	// AtomicAll runs the whole batch in one transaction; any failure
	// rolls every item back.
	AtomicAll Atomicity = "atomic"
	// BestEffort commits each item independently and reports per-item
	// failures.
	BestEffort Atomicity = "best_effort"
)

type BatchInput struct {
	OrderIDs []string
	Action   BatchAction
	// Status is the target for BatchUpdateStatus.
	Status FlowStatus
	Reason string
	Mode   Atomicity
}

type BatchItemError struct {
	OrderID string `json:"orderId"`
	Error   string `json:"error"`
}

type BatchResult struct {
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Errors    []BatchItemError `json:"errors,omitempty"`
}

// Batch applies one action to many orders under the requested atomicity
// mode.
func (s *Service) Batch(ctx context.Context, in BatchInput, actor auth.Actor) (*BatchResult, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if len(in.OrderIDs) == 0 {
		return nil, apperr.Validation("orderIds required")
	}
	switch in.Action {
	case BatchCancel, BatchDelete, BatchUpdateStatus:
	default:
		return nil, apperr.Newf(apperr.KindValidation, "unknown batch action: %s", in.Action)
	}
	if in.Action == BatchUpdateStatus && !in.Status.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "unknown flow status: %s", in.Status)
	}
	if in.Mode == "" {
		in.Mode = BestEffort
	}

	if in.Mode == AtomicAll {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			scoped := s.withDB(tx)
			for _, id := range in.OrderIDs {
				if err := scoped.applyBatchItem(ctx, id, in, actor); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &BatchResult{Processed: len(in.OrderIDs)}, nil
	}

	result := &BatchResult{}
	for _, id := range in.OrderIDs {
		if err := s.applyBatchItem(ctx, id, in, actor); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BatchItemError{OrderID: id, Error: err.Error()})
			continue
		}
		result.Processed++
	}
	return result, nil
}

// withDB rebinds the service (repo included) to tx for atomic batches.
func (s *Service) withDB(tx *gorm.DB) *Service {
	return &Service{
		db:       tx,
		repo:     s.repo.WithTx(tx),
		logs:     s.logs,
		distance: s.distance,
	}
}

func (s *Service) applyBatchItem(ctx context.Context, id string, in BatchInput, actor auth.Actor) error {
	switch in.Action {
	case BatchCancel:
		return s.Cancel(ctx, id, actor, in.Reason, "cancel")
	case BatchDelete:
		return s.Cancel(ctx, id, actor, in.Reason, "delete")
	case BatchUpdateStatus:
		_, err := s.UpdateStatus(ctx, id, in.Status, actor, in.Reason)
		return err
	default:
		return apperr.Newf(apperr.KindValidation, "unknown batch action: %s", in.Action)
	}
}
