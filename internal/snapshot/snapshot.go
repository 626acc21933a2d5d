// Package snapshot holds the write-once JSON copies of related entities
// that get frozen into rows at the time of an action. A snapshot never
// reflects later edits to the entity it was taken from.
package snapshot

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/cargolink/cargolink/internal/common/auth"
)

// Actor is the identity captured on create/update audit columns.
type Actor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AccessLevel string `json:"accessLevel"`
	CompanyID   string `json:"companyId"`
}

// ActorOf freezes an authenticated actor.
func ActorOf(a auth.Actor) Actor {
	return Actor{
		ID:          a.ID,
		Name:        a.Name,
		Email:       a.Email,
		AccessLevel: a.AccessLevel,
		CompanyID:   a.CompanyID,
	}
}

func (s Actor) Value() (driver.Value, error) { return jsonValue(s) }
func (s *Actor) Scan(src interface{}) error  { return jsonScan(s, src) }

// Company is the shipper/broker company state at dispatch time.
type Company struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	BusinessNumber string `json:"businessNumber"`
	Phone          string `json:"phone"`
}

func (s Company) Value() (driver.Value, error) { return jsonValue(s) }
func (s *Company) Scan(src interface{}) error  { return jsonScan(s, src) }

// Driver is the assigned driver/vehicle state at dispatch time.
type Driver struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	VehicleNumber string `json:"vehicleNumber"`
	VehicleType   string `json:"vehicleType"`
	VehicleWeight string `json:"vehicleWeight"`
}

func (s Driver) Value() (driver.Value, error) { return jsonValue(s) }
func (s *Driver) Scan(src interface{}) error  { return jsonScan(s, src) }

// Address is a pickup/delivery location frozen onto an order.
type Address struct {
	Name       string  `json:"name"`
	RoadAddr   string  `json:"roadAddr"`
	DetailAddr string  `json:"detailAddr"`
	Contact    string  `json:"contact"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
}

func (s Address) Value() (driver.Value, error) { return jsonValue(s) }
func (s *Address) Scan(src interface{}) error  { return jsonScan(s, src) }

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dst any, src interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported snapshot column type %T", src)
	}
}
