package order

import (
	"errors"
	"testing"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

func TestBuildFieldUpdatesRejectsUnknownKeys(t *testing.T) {
	_, err := BuildFieldUpdates(map[string]any{
		"memo":       "ok",
		"companyId":  "c-1",
		"flowStatus": string(FlowLoaded),
		"password":   "nope",
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
	if invalid[0] != "companyId" || invalid[1] != "password" {
		t.Fatalf("expected sorted offending keys, got %#v", invalid)
	}
}

func TestBuildFieldUpdatesConvertsColumns(t *testing.T) {
	updates, err := BuildFieldUpdates(map[string]any{
		"flowStatus":      string(FlowInTransit),
		"isCanceled":      true,
		"estimatedAmount": float64(450000),
		"memo":            "야간 상차",
	})
	if err != nil {
		t.Fatalf("BuildFieldUpdates: %v", err)
	}
	if updates["flow_status"] != string(FlowInTransit) {
		t.Fatalf("flow_status mismatch: %#v", updates["flow_status"])
	}
	if updates["is_canceled"] != true {
		t.Fatalf("is_canceled mismatch: %#v", updates["is_canceled"])
	}
	if _, ok := updates["estimated_amount"]; !ok {
		t.Fatalf("expected estimated_amount column")
	}
	if updates["memo"] != "야간 상차" {
		t.Fatalf("memo mismatch: %#v", updates["memo"])
	}
}

func TestBuildFieldUpdatesRejectsBadValues(t *testing.T) {
	if _, err := BuildFieldUpdates(map[string]any{"flowStatus": "정지"}); err == nil {
		t.Fatalf("expected error for unknown flow status value")
	}
	if _, err := BuildFieldUpdates(map[string]any{"isCanceled": "yes"}); err == nil {
		t.Fatalf("expected error for non-boolean isCanceled")
	}
	if _, err := BuildFieldUpdates(map[string]any{"estimatedAmount": "abc"}); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
	if _, err := BuildFieldUpdates(nil); err == nil {
		t.Fatalf("expected error for empty patch")
	}
}
