package model

import (
	"time"

	"gorm.io/gorm"
)

type Supplier struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID   string         `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string         `gorm:"type:varchar(50);not null" json:"phone"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
