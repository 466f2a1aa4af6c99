package repository

import (
	"context"

	"stockfield/internal/domain/model"
)

type SupplierFilter struct {
	// 空なら全員分（admin）
	OwnerID string
	Q       string
	Limit   int
	Offset  int
}

type SupplierRepository interface {
	FindByID(ctx context.Context, id string) (model.Supplier, error)
	List(ctx context.Context, f SupplierFilter) ([]model.Supplier, error)
	Create(ctx context.Context, s model.Supplier) (model.Supplier, error)
	Update(ctx context.Context, s model.Supplier) error
	SoftDelete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
