package repository

import (
	"context"

	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"gorm.io/gorm"
)

type MovementGormRepository struct {
	db *gorm.DB
}

func NewMovementGormRepository(db *gorm.DB) *MovementGormRepository {
	return &MovementGormRepository{db: db}
}

// 入出庫履歴を追記
func (r *MovementGormRepository) Append(ctx context.Context, m model.Movement) error {
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	return nil
}

// 新しい順
func (r *MovementGormRepository) List(ctx context.Context, f repo.MovementFilter) ([]model.Movement, error) {
	q := r.db.WithContext(ctx).Model(&model.Movement{})

	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.ProductID != "" {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}

	q = q.Order("date DESC").Order("created_at DESC")

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q = q.Limit(limit).Offset(offset)

	movements := []model.Movement{}
	if err := q.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *MovementGormRepository) CountByType(ctx context.Context, t model.MovementType) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Movement{}).Where("type = ?", t).Count(&n).Error
	return n, err
}
