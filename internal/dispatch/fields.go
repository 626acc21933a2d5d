package dispatch

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/common/apperr"
	"github.com/cargolink/cargolink/internal/order"
)

// updatableColumns is the allow-list for the dispatch field-patch endpoint.
var updatableColumns = map[string]string{
	"assignedDriverId":  "assigned_driver_id",
	"vehicleNumber":     "vehicle_number",
	"vehicleType":       "vehicle_type",
	"vehicleWeight":     "vehicle_weight",
	"agreedFreightCost": "agreed_freight_cost",
	"brokerFlowStatus":  "broker_flow_status",
	"isClosed":          "is_closed",
	"brokerMemo":        "broker_memo",
}

// BuildFieldUpdates validates a raw patch against the allow-list and
// converts it to a column map. Unknown keys fail the whole patch and are
// enumerated in the error details.
func BuildFieldUpdates(fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return nil, apperr.Validation("no fields to update")
	}

	var invalid []string
	for k := range fields {
		if _, ok := updatableColumns[k]; !ok {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, apperr.Validation("fields not allowed").
			WithDetails(map[string]any{"invalidFields": invalid})
	}

	updates := make(map[string]any, len(fields))
	for k, v := range fields {
		converted, err := convertFieldValue(k, v)
		if err != nil {
			return nil, err
		}
		updates[updatableColumns[k]] = converted
	}
	return updates, nil
}

func convertFieldValue(field string, v any) (any, error) {
	switch field {
	case "brokerFlowStatus":
		s, ok := v.(string)
		if !ok || !order.FlowStatus(s).Valid() {
			return nil, apperr.Newf(apperr.KindValidation, "invalid broker flow status: %v", v)
		}
		return s, nil
	case "isClosed":
		b, ok := v.(bool)
		if !ok {
			return nil, apperr.Validation("isClosed must be a boolean")
		}
		return b, nil
	case "agreedFreightCost":
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n), nil
		case string:
			d, err := decimal.NewFromString(n)
			if err != nil {
				return nil, apperr.Validation("agreedFreightCost must be numeric")
			}
			return d, nil
		case json.Number:
			d, err := decimal.NewFromString(n.String())
			if err != nil {
				return nil, apperr.Validation("agreedFreightCost must be numeric")
			}
			return d, nil
		default:
			return nil, apperr.Validation("agreedFreightCost must be numeric")
		}
	default:
		return v, nil
	}
}

// columnValue reads the current value of an updatable column off a row, so
// the change log can record only the fields that actually changed.
func columnValue(d *Dispatch, col string) any {
	if d == nil {
		return nil
	}
	switch col {
	case "assigned_driver_id":
		return d.AssignedDriverID
	case "vehicle_number":
		return d.VehicleNumber
	case "vehicle_type":
		return d.VehicleType
	case "vehicle_weight":
		return d.VehicleWeight
	case "agreed_freight_cost":
		return d.AgreedFreightCost
	case "broker_flow_status":
		return string(d.BrokerFlowStatus)
	case "is_closed":
		return d.IsClosed
	case "broker_memo":
		return d.BrokerMemo
	default:
		return nil
	}
}
