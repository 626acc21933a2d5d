package order

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/common/apperr"
)

// updatableColumns is the allow-list for the field-patch endpoint: JSON
// field name to DB column. Anything else is rejected outright.
var updatableColumns = map[string]string{
	"flowStatus":             "flow_status",
	"isCanceled":             "is_canceled",
	"contactName":            "contact_name",
	"contactPhone":           "contact_phone",
	"cargoName":              "cargo_name",
	"requestedVehicleType":   "requested_vehicle_type",
	"requestedVehicleWeight": "requested_vehicle_weight",
	"pickupAddress":          "pickup_address",
	"deliveryAddress":        "delivery_address",
	"pickupDate":             "pickup_date",
	"pickupTime":             "pickup_time",
	"deliveryDate":           "delivery_date",
	"deliveryTime":           "delivery_time",
	"estimatedDistanceKm":    "estimated_distance_km",
	"estimatedAmount":        "estimated_amount",
	"priceType":              "price_type",
	"taxType":                "tax_type",
	"memo":                   "memo",
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
		col := updatableColumns[k]
		converted, err := convertFieldValue(k, v)
		if err != nil {
			return nil, err
		}
		updates[col] = converted
	}
	return updates, nil
}

func convertFieldValue(field string, v any) (any, error) {
	switch field {
	case "flowStatus":
		s, ok := v.(string)
		if !ok || !FlowStatus(s).Valid() {
			return nil, apperr.Newf(apperr.KindValidation, "invalid flow status: %v", v)
		}
		return s, nil
	case "isCanceled":
		b, ok := v.(bool)
		if !ok {
			return nil, apperr.Validation("isCanceled must be a boolean")
		}
		return b, nil
	case "estimatedDistanceKm", "estimatedAmount":
		return toDecimal(field, v)
	case "pickupAddress", "deliveryAddress":
		// Address patches arrive as objects; store the JSON document.
		b, err := json.Marshal(v)
		if err != nil {
			return nil, apperr.Newf(apperr.KindValidation, "invalid %s", field)
		}
		return string(b), nil
	default:
		return v, nil
	}
}

func toDecimal(field string, v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, apperr.Newf(apperr.KindValidation, "%s must be numeric", field)
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, apperr.Newf(apperr.KindValidation, "%s must be numeric", field)
		}
		return d, nil
	default:
		return decimal.Zero, apperr.Newf(apperr.KindValidation, "%s must be numeric", field)
	}
}
