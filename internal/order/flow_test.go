package order

import (
	"testing"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

func TestFlowStatusValid(t *testing.T) {
	for _, s := range FlowSequence {
		if !s.Valid() {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if FlowStatus("없는상태").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
	if FlowStatus("").Valid() {
		t.Fatalf("expected empty status to be invalid")
	}
}

func TestFlowIndexOrdering(t *testing.T) {
	if FlowIndex(FlowRequested) != 0 {
		t.Fatalf("expected 운송요청 at index 0, got %d", FlowIndex(FlowRequested))
	}
	if FlowIndex(FlowCompleted) != len(FlowSequence)-1 {
		t.Fatalf("expected 운송완료 last, got %d", FlowIndex(FlowCompleted))
	}
	if FlowIndex(FlowDispatchWait) >= FlowIndex(FlowDispatchDone) {
		t.Fatalf("expected 배차대기 before 배차완료")
	}
	if FlowIndex(FlowStatus("x")) != -1 {
		t.Fatalf("expected -1 for unknown status")
	}
}

func TestCanTransitionCanceledOrderRejected(t *testing.T) {
	o := &Order{FlowStatus: FlowInTransit, IsCanceled: true}
	err := canTransition(o, FlowUnloaded)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for canceled order, got %v", err)
	}
}

func TestCanTransitionSameStatusRejected(t *testing.T) {
	o := &Order{FlowStatus: FlowLoaded}
	err := canTransition(o, FlowLoaded)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for same-status move, got %v", err)
	}
}

func TestCanTransitionAllowsForwardAndBackward(t *testing.T) {
	o := &Order{FlowStatus: FlowLoaded}
	if err := canTransition(o, FlowInTransit); err != nil {
		t.Fatalf("forward move rejected: %v", err)
	}
	if err := canTransition(o, FlowDispatchDone); err != nil {
		t.Fatalf("backward move rejected: %v", err)
	}
}

func TestCanTransitionUnknownStatusRejected(t *testing.T) {
	o := &Order{FlowStatus: FlowRequested}
	err := canTransition(o, FlowStatus("없는상태"))
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}
