package order

import "github.com/cargolink/cargolink/internal/common/apperr"

// FlowStatus is the shipper-side transport progress enum. Values are
// persisted as the Korean labels the operations team works with.
type FlowStatus string

const (
	FlowRequested    FlowStatus = "운송요청"
	FlowDispatchWait FlowStatus = "배차대기"
	FlowDispatchDone FlowStatus = "배차완료"
	FlowLoadWait     FlowStatus = "상차대기"
	FlowLoaded       FlowStatus = "상차완료"
	FlowInTransit    FlowStatus = "운송중"
	FlowUnloaded     FlowStatus = "하차완료"
	FlowCompleted    FlowStatus = "운송완료"
)

// FlowSequence is the nominal forward order of the flow. Transitions are
// not restricted to it (operators move orders backwards to fix mistakes);
// it exists for display ordering and reporting.
var FlowSequence = []FlowStatus{
	FlowRequested,
	FlowDispatchWait,
	FlowDispatchDone,
	FlowLoadWait,
	FlowLoaded,
	FlowInTransit,
	FlowUnloaded,
	FlowCompleted,
}

// Valid reports whether s is a member of the enum.
func (s FlowStatus) Valid() bool {
	for _, v := range FlowSequence {
		if s == v {
			return true
		}
	}
	return false
}

// FlowIndex returns s's position in the nominal sequence, or -1.
func FlowIndex(s FlowStatus) int {
	for i, v := range FlowSequence {
		if s == v {
			return i
		}
	}
	return -1
}

// canTransition decides whether an order may move to another flow state.
// Canceled orders accept nothing; moving to the current state is a no-op
// and rejected; any other enum member is allowed, forward or backward.
func canTransition(o *Order, to FlowStatus) error {
	if !to.Valid() {
		return apperr.Newf(apperr.KindValidation, "unknown flow status: %s", to)
	}
	if o.IsCanceled {
		return apperr.Validation("order is canceled")
	}
	if o.FlowStatus == to {
		return apperr.Newf(apperr.KindValidation, "order already in status %s", to)
	}
	return nil
}
