package repository

import (
	"context"
	"errors"

	"stockfield/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 読み取った時点のversionと一致しないと書き込めない
var ErrVersionConflict = errors.New("version conflict")

// 一覧検索
type ProductFilter struct {
	OwnerID    string
	SupplierID string
	Status     *model.ProductStatus
	Q          string
	// 期限の入っている商品だけ
	WithExpiryOnly bool
	Limit          int
	Offset         int
}

// 状態と期限日数だけの更新
type ProductStatusUpdate struct {
	ID              string
	Version         int64
	Status          model.ProductStatus
	DaysUntilExpiry *int
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	// p.Version が一致したときだけ更新し、versionを+1する
	Update(ctx context.Context, p model.Product) error
	UpdateStatus(ctx context.Context, u ProductStatusUpdate) error
	SoftDelete(ctx context.Context, id string) error

	CountBySupplier(ctx context.Context, supplierID string) (int64, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	CountByStatus(ctx context.Context) (map[model.ProductStatus]int64, error)
}
