package dispatch

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/order"
)

func TestBuildFieldUpdatesRejectsUnknownKeys(t *testing.T) {
	_, err := BuildFieldUpdates(map[string]any{
		"brokerMemo": "ok",
		"orderId":    "o-1",
		"isLocked":   true,
	})
	if err == nil {
		t.Fatalf("expected error for unknown keys")
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", apperr.KindOf(err))
	}

	var e *apperr.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *apperr.Error")
	}
	details, ok := e.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %#v", e.Details)
	}
	invalid, ok := details["invalidFields"].([]string)
	if !ok || len(invalid) != 2 {
		t.Fatalf("expected 2 invalid fields, got %#v", details["invalidFields"])
	}
	if invalid[0] != "isLocked" || invalid[1] != "orderId" {
		t.Fatalf("expected sorted offending keys, got %#v", invalid)
	}
}

func TestBuildFieldUpdatesConvertsColumns(t *testing.T) {
	updates, err := BuildFieldUpdates(map[string]any{
		"brokerFlowStatus":  string(order.FlowInTransit),
		"agreedFreightCost": float64(550000),
		"isClosed":          true,
		"brokerMemo":        "지게차 필요",
	})
	if err != nil {
		t.Fatalf("BuildFieldUpdates: %v", err)
	}
	if updates["broker_flow_status"] != string(order.FlowInTransit) {
		t.Fatalf("broker_flow_status mismatch: %#v", updates["broker_flow_status"])
	}
	cost, ok := updates["agreed_freight_cost"].(decimal.Decimal)
	if !ok || !cost.Equal(decimal.NewFromInt(550000)) {
		t.Fatalf("agreed_freight_cost mismatch: %#v", updates["agreed_freight_cost"])
	}
	if updates["is_closed"] != true {
		t.Fatalf("is_closed mismatch: %#v", updates["is_closed"])
	}
}

func TestBuildFieldUpdatesRejectsBadValues(t *testing.T) {
	if _, err := BuildFieldUpdates(map[string]any{"brokerFlowStatus": "완료됨"}); err == nil {
		t.Fatalf("expected error for unknown broker flow status")
	}
	if _, err := BuildFieldUpdates(map[string]any{"isClosed": "yes"}); err == nil {
		t.Fatalf("expected error for non-boolean isClosed")
	}
	if _, err := BuildFieldUpdates(map[string]any{"agreedFreightCost": "abc"}); err == nil {
		t.Fatalf("expected error for non-numeric cost")
	}
	if _, err := BuildFieldUpdates(nil); err == nil {
		t.Fatalf("expected error for empty patch")
	}
}

func TestColumnValueReadsCurrentRow(t *testing.T) {
	d := &Dispatch{
		AssignedDriverID: "d-1",
		VehicleNumber:    "88바1234",
		BrokerFlowStatus: order.FlowLoaded,
		IsClosed:         true,
		BrokerMemo:       "메모",
	}
	if columnValue(d, "assigned_driver_id") != "d-1" {
		t.Fatalf("assigned_driver_id mismatch")
	}
	if columnValue(d, "vehicle_number") != "88바1234" {
		t.Fatalf("vehicle_number mismatch")
	}
	if columnValue(d, "broker_flow_status") != string(order.FlowLoaded) {
		t.Fatalf("broker_flow_status mismatch")
	}
	if columnValue(d, "is_closed") != true {
		t.Fatalf("is_closed mismatch")
	}
	if columnValue(nil, "broker_memo") != nil {
		t.Fatalf("expected nil for nil row")
	}
}
