package usecase

import (
	"context"
	"errors"
	"strings"

	"stockfield/internal/domain/alert"
	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"go.uber.org/zap"
)

type ProductUsecase struct {
	tm          repo.TransactionManager
	productRepo repo.ProductRepository
	clock       Clock
	idGen       IDGenerator
	validator   StructValidator
	log         *zap.Logger
	windowDays  int
	maxRetries  int
}

// DI
func NewProductUsecase(
	tm repo.TransactionManager,
	productRepo repo.ProductRepository,
	clock Clock,
	idGen IDGenerator,
	validator StructValidator,
	log *zap.Logger,
	windowDays int,
	maxRetries int,
) *ProductUsecase {
	return &ProductUsecase{
		tm:          tm,
		productRepo: productRepo,
		clock:       clock,
		idGen:       idGen,
		validator:   validator,
		log:         log,
		windowDays:  alert.NormalizeWindow(windowDays),
		maxRetries:  maxRetries,
	}
}

// 商品の登録・更新の入力（更新は全項目置き換え）
type ProductInput struct {
	SupplierID       string  `json:"supplier_id" validate:"required"`
	Name             string  `json:"name" validate:"required,max=255"`
	Description      string  `json:"description" validate:"max=2000"`
	Category         string  `json:"category" validate:"required,max=100"`
	Kind             string  `json:"kind" validate:"omitempty,product_kind"`
	RegistrationCode *string `json:"registration_code" validate:"omitempty,max=100"`
	StorageNotes     *string `json:"storage_notes" validate:"omitempty,max=2000"`
	ToxicityClass    *string `json:"toxicity_class" validate:"omitempty,max=100"`
	Quantity         int64   `json:"quantity" validate:"gte=0"`
	MinimumThreshold int64   `json:"minimum_threshold" validate:"gte=0"`
	UnitPrice        *int64  `json:"unit_price" validate:"omitempty,gte=0"`
	ExpiryDate       *string `json:"expiry_date" validate:"omitempty,isodate"`
	Batch            *string `json:"batch" validate:"omitempty,max=100"`
	Location         *string `json:"location" validate:"omitempty,max=255"`
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, ownerID string, in ProductInput) (model.Product, error) {
	if ownerID == "" {
		return model.Product{}, newKindError(ErrUnauthorized, "unauthorized")
	}
	p, err := u.buildProduct(in)
	if err != nil {
		return model.Product{}, err
	}

	now := u.clock.Now()
	p.ID = u.idGen.NewID()
	p.OwnerID = ownerID
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Status, p.DaysUntilExpiry = u.derive(p)

	var created model.Product
	err = u.tm.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := u.checkSupplier(ctx, r, ownerID, p.SupplierID); err != nil {
			return err
		}
		c, err := r.Products().Create(ctx, p)
		if err != nil {
			return storageErr(u.log, "product.create", err)
		}
		created = c
		return r.AuditLogs().Create(ctx, auditLog(now, ownerID, model.AuditActionCreateProduct, model.AuditResourceProduct, c.ID, nil, c))
	})
	if err != nil {
		return model.Product{}, storageErr(u.log, "product.create", err)
	}
	return created, nil
}

// 全項目置き換え。状態はここで導出し直す（期限を延ばした場合に available へ戻る経路）。
func (u *ProductUsecase) UpdateProduct(ctx context.Context, actor Actor, productID string, in ProductInput) (model.Product, error) {
	next, err := u.buildProduct(in)
	if err != nil {
		return model.Product{}, err
	}

	var updated model.Product
	err = withRetry(ctx, u.tm, u.maxRetries, u.log, "update_product", func(r repo.TxRepos) error {
		cur, err := u.findOwned(ctx, r.Products(), actor, productID)
		if err != nil {
			return err
		}
		if err := u.checkSupplier(ctx, r, cur.OwnerID, next.SupplierID); err != nil {
			return err
		}

		p := next
		p.ID = cur.ID
		p.OwnerID = cur.OwnerID
		p.Version = cur.Version
		p.CreatedAt = cur.CreatedAt
		p.UpdatedAt = u.clock.Now()
		p.Status, p.DaysUntilExpiry = u.derive(p)

		if err := r.Products().Update(ctx, p); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound("product")
			}
			return storageErr(u.log, "product.update", err)
		}
		p.Version++
		updated = p

		return storageErr(u.log, "product.audit", r.AuditLogs().Create(ctx,
			auditLog(p.UpdatedAt, actor.UserID, model.AuditActionUpdateProduct, model.AuditResourceProduct, p.ID, cur, p)))
	})
	if err != nil {
		return model.Product{}, err
	}
	return updated, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, actor Actor, productID string) (model.Product, error) {
	return u.findOwned(ctx, u.productRepo, actor, productID)
}

// GET /products の入力
type ListProductsInput struct {
	Status     string
	Q          string
	SupplierID string
	Limit      int
	Offset     int
}

func (u *ProductUsecase) ListProducts(ctx context.Context, ownerID string, in ListProductsInput) ([]model.Product, error) {
	if ownerID == "" {
		return nil, newKindError(ErrUnauthorized, "unauthorized")
	}
	return u.list(ctx, ownerID, in)
}

// 管理者用：全ユーザーの商品（ownerIDで絞り込み可）
func (u *ProductUsecase) AdminListProducts(ctx context.Context, ownerID string, in ListProductsInput) ([]model.Product, error) {
	return u.list(ctx, ownerID, in)
}

func (u *ProductUsecase) list(ctx context.Context, ownerID string, in ListProductsInput) ([]model.Product, error) {
	if in.Limit < 0 || in.Limit > 500 {
		return nil, errValidation("invalid limit")
	}
	if in.Offset < 0 {
		return nil, errValidation("invalid offset")
	}
	if len(in.Q) > 100 {
		return nil, errValidation("q too long")
	}

	f := repo.ProductFilter{
		OwnerID:    ownerID,
		SupplierID: in.SupplierID,
		Q:          strings.TrimSpace(in.Q),
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	if in.Status != "" {
		st, err := model.ParseProductStatus(in.Status)
		if err != nil {
			return nil, errValidation("invalid status")
		}
		f.Status = &st
	}

	items, err := u.productRepo.List(ctx, f)
	if err != nil {
		return nil, storageErr(u.log, "product.list", err)
	}
	return items, nil
}

// 論理削除。本人か管理者。
func (u *ProductUsecase) DeleteProduct(ctx context.Context, actor Actor, productID string) error {
	return u.tm.WithinTx(ctx, func(r repo.TxRepos) error {
		cur, err := u.findOwned(ctx, r.Products(), actor, productID)
		if err != nil {
			return err
		}
		if err := r.Products().SoftDelete(ctx, cur.ID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound("product")
			}
			return storageErr(u.log, "product.delete", err)
		}
		return storageErr(u.log, "product.audit", r.AuditLogs().Create(ctx,
			auditLog(u.clock.Now(), actor.UserID, model.AuditActionDeleteProduct, model.AuditResourceProduct, cur.ID, cur, nil)))
	})
}

type ProductStats struct {
	ByStatus map[model.ProductStatus]int64 `json:"by_status"`
	Total    int64                         `json:"total"`
}

// 管理者用：状態ごとの件数
func (u *ProductUsecase) AdminProductStats(ctx context.Context) (ProductStats, error) {
	counts, err := u.productRepo.CountByStatus(ctx)
	if err != nil {
		return ProductStats{}, storageErr(u.log, "product.stats", err)
	}

	out := ProductStats{ByStatus: map[model.ProductStatus]int64{
		model.StatusAvailable:    0,
		model.StatusExpiringSoon: 0,
		model.StatusExpired:      0,
		model.StatusOutOfStock:   0,
	}}
	for st, n := range counts {
		out.ByStatus[st] = n
		out.Total += n
	}
	return out, nil
}

func (u *ProductUsecase) buildProduct(in ProductInput) (model.Product, error) {
	if err := u.validator.Struct(in); err != nil {
		return model.Product{}, errValidation(err.Error())
	}
	kind, err := model.ParseProductKind(in.Kind)
	if err != nil {
		return model.Product{}, errValidation("invalid kind")
	}

	p := model.Product{
		SupplierID:       strings.TrimSpace(in.SupplierID),
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		Category:         strings.TrimSpace(in.Category),
		Kind:             kind,
		RegistrationCode: trimOrNil(in.RegistrationCode),
		StorageNotes:     trimOrNil(in.StorageNotes),
		ToxicityClass:    trimOrNil(in.ToxicityClass),
		Quantity:         in.Quantity,
		MinimumThreshold: in.MinimumThreshold,
		UnitPrice:        in.UnitPrice,
		Batch:            trimOrNil(in.Batch),
		Location:         trimOrNil(in.Location),
	}
	if in.ExpiryDate != nil {
		d, err := alert.ParseExpiry(in.ExpiryDate)
		if err != nil {
			return model.Product{}, errValidation("expiry_date must be YYYY-MM-DD")
		}
		if d != nil {
			p.ExpiryDate = strPtr(alert.FormatDate(*d))
		}
	}
	return p, nil
}

func (u *ProductUsecase) derive(p model.Product) (model.ProductStatus, *int) {
	// 入力は検証済みなので壊れた日付は来ない
	expiry, _ := alert.ParseExpiry(p.ExpiryDate)
	return alert.DeriveStatus(p.Quantity, expiry, u.clock.Now(), u.windowDays)
}

func (u *ProductUsecase) findOwned(ctx context.Context, products repo.ProductRepository, actor Actor, productID string) (model.Product, error) {
	if actor.UserID == "" {
		return model.Product{}, newKindError(ErrUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(productID) == "" {
		return model.Product{}, errValidation("invalid product id")
	}
	p, err := products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound("product")
	}
	if err != nil {
		return model.Product{}, storageErr(u.log, "product.find", err)
	}
	// 他人の商品は存在を見せない
	if !actor.CanAccess(p.OwnerID) {
		return model.Product{}, errNotFound("product")
	}
	return p, nil
}

// 仕入先は存在し、同じ所有者のものであること
func (u *ProductUsecase) checkSupplier(ctx context.Context, r repo.TxRepos, ownerID, supplierID string) error {
	s, err := r.Suppliers().FindByID(ctx, supplierID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && s.OwnerID != ownerID) {
		return newKindError(ErrInvalidReference, "supplier not found")
	}
	if err != nil {
		return storageErr(u.log, "product.find_supplier", err)
	}
	return nil
}

func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
