package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/snapshot"
)

// Order is a shipper's transport request, the root entity of the domain.
// Orders are never hard-deleted; cancellation is a terminal soft state.
type Order struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	CompanyID string `gorm:"index;size:36;not null" json:"companyId"`

	// Contact snapshot taken at registration.
	ContactName  string `gorm:"size:64" json:"contactName"`
	ContactPhone string `gorm:"size:32" json:"contactPhone"`

	FlowStatus FlowStatus `gorm:"type:varchar(24);index;not null" json:"flowStatus"`
	IsCanceled bool       `gorm:"index;not null;default:false" json:"isCanceled"`

	CargoName              string `gorm:"size:128;not null" json:"cargoName"`
	RequestedVehicleType   string `gorm:"size:32" json:"requestedVehicleType"`
	RequestedVehicleWeight string `gorm:"size:32" json:"requestedVehicleWeight"`

	PickupAddress   snapshot.Address `gorm:"type:json" json:"pickupAddress"`
	DeliveryAddress snapshot.Address `gorm:"type:json" json:"deliveryAddress"`
	PickupDate      string           `gorm:"size:10" json:"pickupDate"` // YYYY-MM-DD
	PickupTime      string           `gorm:"size:5" json:"pickupTime"`  // HH:MM
	DeliveryDate    string           `gorm:"size:10" json:"deliveryDate"`
	DeliveryTime    string           `gorm:"size:5" json:"deliveryTime"`

	EstimatedDistanceKm decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"estimatedDistanceKm"`
	EstimatedAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"estimatedAmount"`
	PriceType           string          `gorm:"size:16" json:"priceType"` // quote / contract
	TaxType             string          `gorm:"size:16" json:"taxType"`   // taxable / exempt
	Memo                string          `gorm:"type:text" json:"memo"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	CreatedSnapshot snapshot.Actor `gorm:"type:json" json:"createdSnapshot"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Order) TableName() string { return "orders" }
