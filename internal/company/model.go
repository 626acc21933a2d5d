package company

import (
	"time"

	"github.com/cargolink/cargolink/internal/snapshot"
)

// Company is a shipper, broker or carrier organization.
type Company struct {
	ID                 string `gorm:"primaryKey;size:36" json:"id"`
	Name               string `gorm:"size:128;not null;index" json:"name"`
	BusinessNumber     string `gorm:"size:32;uniqueIndex" json:"businessNumber"`
	RepresentativeName string `gorm:"size:64" json:"representativeName"`
	Phone              string `gorm:"size:32" json:"phone"`
	Email              string `gorm:"size:128" json:"email"`
	Address            string `gorm:"size:255" json:"address"`
	CompanyType        string `gorm:"size:16;index;not null" json:"companyType"` // shipper / broker / carrier
	Status             string `gorm:"size:16;not null;default:'active'" json:"status"`
	Memo               string `gorm:"type:text" json:"memo"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Company) TableName() string { return "companies" }

// Snapshot freezes the fields dispatch rows carry.
func (c *Company) Snapshot() snapshot.Company {
	if c == nil {
		return snapshot.Company{}
	}
	return snapshot.Company{
		ID:             c.ID,
		Name:           c.Name,
		BusinessNumber: c.BusinessNumber,
		Phone:          c.Phone,
	}
}
