package repository

import (
	"context"
	"time"

	"stockfield/internal/domain/model"
)

type MovementFilter struct {
	OwnerID   string
	ProductID string
	Type      *model.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// 入出庫の履歴。追記のみで、更新と削除は持たない。
type MovementRepository interface {
	Append(ctx context.Context, m model.Movement) error
	List(ctx context.Context, f MovementFilter) ([]model.Movement, error)
	CountByType(ctx context.Context, t model.MovementType) (int64, error)
}
