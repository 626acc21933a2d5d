package charge

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cargolink/cargolink/internal/snapshot"
)

// Stage classifies when in the transport lifecycle a charge bucket was
// raised.
type Stage string

const (
	StageEstimate  Stage = "estimate"
	StageProgress  Stage = "progress"
	StageCompleted Stage = "completed"
)

func (s Stage) Valid() bool {
	switch s {
	case StageEstimate, StageProgress, StageCompleted:
		return true
	}
	return false
}

// Side marks which party a charge line bills.
type Side string

const (
	SideSales    Side = "sales"    // billed to the shipper
	SidePurchase Side = "purchase" // owed to the carrier
)

func (s Side) Valid() bool {
	return s == SideSales || s == SidePurchase
}

// Group is a named bucket of cost lines for one order, optionally tied to
// a dispatch. A locked group rejects every mutation except unlocking.
type Group struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	OrderID     string `gorm:"size:36;index;not null" json:"orderId"`
	DispatchID  string `gorm:"size:36;index" json:"dispatchId,omitempty"`
	Stage       Stage  `gorm:"type:varchar(16);not null" json:"stage"`
	Reason      string `gorm:"size:32;not null" json:"reason"` // base_freight, extra_wait, ...
	Description string `gorm:"size:255" json:"description"`
	IsLocked    bool   `gorm:"not null;default:false" json:"isLocked"`

	Lines []Line `gorm:"foreignKey:GroupID" json:"chargeLines"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Group) TableName() string { return "charge_groups" }

// Line is one monetary entry within a group. TaxAmount is filled at write
// time from TaxRate when the caller omits it; a line with neither stays
// untaxed until settlement applies the default rate.
type Line struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	GroupID   string           `gorm:"size:36;index;not null" json:"groupId"`
	Side      Side             `gorm:"type:varchar(16);index;not null" json:"side"`
	Amount    decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"amount"`
	TaxRate   *decimal.Decimal `gorm:"type:decimal(8,4)" json:"taxRate,omitempty"`
	TaxAmount *decimal.Decimal `gorm:"type:decimal(20,4)" json:"taxAmount,omitempty"`
	Memo      string           `gorm:"size:255" json:"memo"`

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Line) TableName() string { return "charge_lines" }
