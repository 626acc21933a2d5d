package address

import (
	"time"

	"github.com/cargolink/cargolink/internal/snapshot"
)

// Address is a reusable address-book entry. Orders copy the fields into
// their own pickup/delivery snapshots, so edits here never rewrite history.
type Address struct {
	ID         string  `gorm:"primaryKey;size:36" json:"id"`
	CompanyID  string  `gorm:"size:36;index" json:"companyId"`
	Name       string  `gorm:"size:128;not null;index" json:"name"`
	RoadAddr   string  `gorm:"size:255" json:"roadAddr"`
	DetailAddr string  `gorm:"size:255" json:"detailAddr"`
	Contact    string  `gorm:"size:32" json:"contact"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Memo       string  `gorm:"type:text" json:"memo"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Address) TableName() string { return "addresses" }

func (a *Address) Snapshot() snapshot.Address {
	if a == nil {
		return snapshot.Address{}
	}
	return snapshot.Address{
		Name:       a.Name,
		RoadAddr:   a.RoadAddr,
		DetailAddr: a.DetailAddr,
		Contact:    a.Contact,
		Latitude:   a.Latitude,
		Longitude:  a.Longitude,
	}
}
