package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 商品のライフサイクル状態
type ProductStatus string

const (
	StatusAvailable    ProductStatus = "available"
	StatusExpiringSoon ProductStatus = "expiring_soon"
	StatusExpired      ProductStatus = "expired"
	StatusOutOfStock   ProductStatus = "out_of_stock"
)

// 境界を越える状態文字列はすべてここで検証する
func ParseProductStatus(s string) (ProductStatus, error) {
	switch ProductStatus(strings.TrimSpace(s)) {
	case StatusAvailable:
		return StatusAvailable, nil
	case StatusExpiringSoon:
		return StatusExpiringSoon, nil
	case StatusExpired:
		return StatusExpired, nil
	case StatusOutOfStock:
		return StatusOutOfStock, nil
	default:
		return "", fmt.Errorf("invalid product status %q", s)
	}
}

// 期限系の状態か
func (s ProductStatus) IsExpiryDriven() bool {
	return s == StatusExpiringSoon || s == StatusExpired
}

// 商品種別
type ProductKind string

const (
	KindFood      ProductKind = "food"
	KindPesticide ProductKind = "pesticide"
	KindOther     ProductKind = "other"
)

func ParseProductKind(s string) (ProductKind, error) {
	switch ProductKind(strings.TrimSpace(s)) {
	case "", KindFood:
		return KindFood, nil
	case KindPesticide:
		return KindPesticide, nil
	case KindOther:
		return KindOther, nil
	default:
		return "", fmt.Errorf("invalid product kind %q", s)
	}
}

type Product struct {
	ID               string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID          string         `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	SupplierID       string         `gorm:"type:varchar(36);not null;index" json:"supplier_id"`
	Name             string         `gorm:"type:varchar(255);not null" json:"name"`
	Description      string         `gorm:"type:text" json:"description"`
	Category         string         `gorm:"type:varchar(100);not null" json:"category"`
	Kind             ProductKind    `gorm:"type:varchar(20);not null;default:'food'" json:"kind"`
	RegistrationCode *string        `gorm:"type:varchar(100)" json:"registration_code,omitempty"`
	StorageNotes     *string        `gorm:"type:text" json:"storage_notes,omitempty"`
	ToxicityClass    *string        `gorm:"type:varchar(100)" json:"toxicity_class,omitempty"`
	Quantity         int64          `gorm:"not null;default:0" json:"quantity"`
	MinimumThreshold int64          `gorm:"not null;default:0" json:"minimum_threshold"`
	UnitPrice        *int64         `json:"unit_price,omitempty"`
	ExpiryDate       *string        `gorm:"type:varchar(32);index" json:"expiry_date,omitempty"` // YYYY-MM-DD
	Batch            *string        `gorm:"type:varchar(100)" json:"batch,omitempty"`
	Location         *string        `gorm:"type:varchar(255)" json:"location,omitempty"`
	Status           ProductStatus  `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	DaysUntilExpiry  *int           `json:"days_until_expiry"`
	Version          int64          `gorm:"not null;default:0" json:"-"`
	CreatedAt        time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// 在庫の下限監視対象か（0は監視しない）
func (p Product) IsMonitored() bool {
	return p.MinimumThreshold > 0
}

func (p Product) HasExpiryDate() bool {
	return p.ExpiryDate != nil && strings.TrimSpace(*p.ExpiryDate) != ""
}
