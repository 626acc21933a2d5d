package driver

import (
	"time"

	"github.com/cargolink/cargolink/internal/snapshot"
)

// Driver is a vehicle owner-operator that dispatches get assigned to.
type Driver struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	CompanyID     string `gorm:"size:36;index" json:"companyId"`
	Name          string `gorm:"size:64;not null;index" json:"name"`
	Phone         string `gorm:"size:32;index" json:"phone"`
	VehicleNumber string `gorm:"size:32;index" json:"vehicleNumber"`
	VehicleType   string `gorm:"size:32" json:"vehicleType"`   // 카고, 윙바디, 탑차 ...
	VehicleWeight string `gorm:"size:16" json:"vehicleWeight"` // 1톤, 5톤, 11톤 ...
	Status        string `gorm:"size:16;not null;default:'active'" json:"status"`
	Memo          string `gorm:"type:text" json:"memo"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Driver) TableName() string { return "drivers" }

// Snapshot freezes the fields dispatch rows carry.
func (d *Driver) Snapshot() snapshot.Driver {
	if d == nil {
		return snapshot.Driver{}
	}
	return snapshot.Driver{
		ID:            d.ID,
		Name:          d.Name,
		Phone:         d.Phone,
		VehicleNumber: d.VehicleNumber,
		VehicleType:   d.VehicleType,
		VehicleWeight: d.VehicleWeight,
	}
}
