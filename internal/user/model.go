package user

import (
	"time"

	"github.com/cargolink/cargolink/internal/common/auth"
	"github.com/cargolink/cargolink/internal/snapshot"
)

// User is a back-office account. AccessLevel gates the broker screens:
// viewer / dispatcher / admin.
type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Email        string `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	PasswordSalt string `gorm:"size:64;not null" json:"-"`
	Name         string `gorm:"size:64;not null" json:"name"`
	Phone        string `gorm:"size:32" json:"phone"`
	AccessLevel  string `gorm:"size:16;not null;default:'viewer'" json:"accessLevel"`
	CompanyID    string `gorm:"size:36;index" json:"companyId"`
	Status       string `gorm:"size:16;not null;default:'active'" json:"status"` // active / suspended

	CreatedBy       string         `gorm:"size:36" json:"createdBy"`
	UpdatedBy       string         `gorm:"size:36" json:"updatedBy"`
	UpdatedSnapshot snapshot.Actor `gorm:"type:json" json:"updatedSnapshot"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) Actor() auth.Actor {
	if u == nil {
		return auth.Actor{}
	}
	return auth.Actor{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		AccessLevel: u.AccessLevel,
		CompanyID:   u.CompanyID,
	}
}
