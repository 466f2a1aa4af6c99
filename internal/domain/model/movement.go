package model

import (
	"fmt"
	"strings"
	"time"
)

// 入出庫の種別
type MovementType string

const (
	MovementEntry MovementType = "entry"
	MovementExit  MovementType = "exit"
)

func ParseMovementType(s string) (MovementType, error) {
	switch MovementType(strings.TrimSpace(s)) {
	case MovementEntry:
		return MovementEntry, nil
	case MovementExit:
		return MovementExit, nil
	default:
		return "", fmt.Errorf("invalid movement type %q", s)
	}
}

//入出庫の履歴（追記のみ）

type Movement struct {
	ID             string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProductID      string       `gorm:"type:varchar(36);not null;index" json:"product_id"`
	SupplierID     string       `gorm:"type:varchar(36);not null;index" json:"supplier_id"`
	OwnerID        string       `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Type           MovementType `gorm:"type:varchar(10);not null;index" json:"type"`
	Quantity       int64        `gorm:"not null" json:"quantity"`
	Date           time.Time    `gorm:"type:date;not null" json:"date"`
	QuantityBefore int64        `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int64        `gorm:"not null" json:"quantity_after"`
	CreatedAt      time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
}
