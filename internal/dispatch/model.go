package dispatch

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/order"
	"github.com/cargolink/cargolink/internal/snapshot"
)

// Dispatch is the broker-side assignment, one-to-one with an order.
// Broker, manager and driver details are frozen as snapshots at assignment
// time. IsClosed is the settlement lock: once set, charge and settlement
// mutations against this dispatch are rejected.
type Dispatch struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	OrderID string `gorm:"size:36;uniqueIndex;not null" json:"orderId"`

	BrokerCompanyID       string           `gorm:"size:36;index" json:"brokerCompanyId"`
	BrokerCompanySnapshot snapshot.Company `gorm:"type:json" json:"brokerCompanySnapshot"`
	BrokerManagerID       string           `gorm:"size:36" json:"brokerManagerId"`
	BrokerManagerSnapshot snapshot.Actor   `gorm:"type:json" json:"brokerManagerSnapshot"`

	AssignedDriverID string          `gorm:"size:36;index" json:"assignedDriverId"`
	DriverSnapshot   snapshot.Driver `gorm:"type:json" json:"driverSnapshot"`
	VehicleNumber    string          `gorm:"size:32" json:"vehicleNumber"`
	VehicleType      string          `gorm:"size:32" json:"vehicleType"`
	VehicleWeight    string          `gorm:"size:16" json:"vehicleWeight"`

	AgreedFreightCost decimal.Decimal  `gorm:"type:decimal(20,4)" json:"agreedFreightCost"`
	BrokerFlowStatus  order.FlowStatus `gorm:"type:varchar(24);index" json:"brokerFlowStatus"`
	IsClosed          bool             `gorm:"not null;default:false" json:"isClosed"`
	BrokerMemo        string           `gorm:"type:text" json:"brokerMemo"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Dispatch) TableName() string { return "order_dispatches" }

// Detail is the joined order + dispatch view returned by create and get.
type Detail struct {
	Order    *order.Order `json:"order"`
	Dispatch *Dispatch    `json:"dispatch"`
}
