package repository

import (
	"context"
	"errors"
	"strings"

	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 所有者/状態/名前で絞り込み。削除済みは含まない。
func (r *ProductGormRepository) List(ctx context.Context, f repo.ProductFilter) ([]model.Product, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{})

	if f.OwnerID != "" {
		tx = tx.Where("owner_id = ?", f.OwnerID)
	}
	if f.SupplierID != "" {
		tx = tx.Where("supplier_id = ?", f.SupplierID)
	}
	if f.Status != nil {
		tx = tx.Where("status = ?", *f.Status)
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("name ILIKE ? OR category ILIKE ? OR batch ILIKE ?", like, like, like)
	}
	if f.WithExpiryOnly {
		tx = tx.Where("expiry_date IS NOT NULL AND expiry_date <> ''")
	}

	tx = tx.Order("name asc").Order("id asc")
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}

	products := []model.Product{}
	if err := tx.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新（version一致のときだけ）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"supplier_id":       p.SupplierID,
			"name":              p.Name,
			"description":       p.Description,
			"category":          p.Category,
			"kind":              p.Kind,
			"registration_code": p.RegistrationCode,
			"storage_notes":     p.StorageNotes,
			"toxicity_class":    p.ToxicityClass,
			"quantity":          p.Quantity,
			"minimum_threshold": p.MinimumThreshold,
			"unit_price":        p.UnitPrice,
			"expiry_date":       p.ExpiryDate,
			"batch":             p.Batch,
			"location":          p.Location,
			"status":            p.Status,
			"days_until_expiry": p.DaysUntilExpiry,
			"version":           gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, p.ID)
	}
	return nil
}

// 状態と期限日数だけ更新（スイープ用）
func (r *ProductGormRepository) UpdateStatus(ctx context.Context, u repo.ProductStatusUpdate) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND version = ?", u.ID, u.Version).
		Updates(map[string]interface{}{
			"status":            u.Status,
			"days_until_expiry": u.DaysUntilExpiry,
			"version":           gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, u.ID)
	}
	return nil
}

// 商品削除
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) CountBySupplier(ctx context.Context, supplierID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("supplier_id = ?", supplierID).Count(&n).Error
	return n, err
}

func (r *ProductGormRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

// 状態ごとの件数
func (r *ProductGormRepository) CountByStatus(ctx context.Context) (map[model.ProductStatus]int64, error) {
	var rows []struct {
		Status model.ProductStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := map[model.ProductStatus]int64{}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// 0件更新の理由を調べる
func (r *ProductGormRepository) missOrConflict(ctx context.Context, id string) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return repo.ErrVersionConflict
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
