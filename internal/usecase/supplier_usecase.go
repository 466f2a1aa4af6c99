package usecase

import (
	"context"
	"errors"
	"strings"

	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"go.uber.org/zap"
)

type SupplierUsecase struct {
	tm        repo.TransactionManager
	suppliers repo.SupplierRepository
	clock     Clock
	idGen     IDGenerator
	validator StructValidator
	log       *zap.Logger
}

// DI
func NewSupplierUsecase(
	tm repo.TransactionManager,
	suppliers repo.SupplierRepository,
	clock Clock,
	idGen IDGenerator,
	validator StructValidator,
	log *zap.Logger,
) *SupplierUsecase {
	return &SupplierUsecase{
		tm:        tm,
		suppliers: suppliers,
		clock:     clock,
		idGen:     idGen,
		validator: validator,
		log:       log,
	}
}

type SupplierInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"required,max=50"`
	Email string `json:"email" validate:"omitempty,email,max=255"`
}

func (u *SupplierUsecase) CreateSupplier(ctx context.Context, ownerID string, in SupplierInput) (model.Supplier, error) {
	if ownerID == "" {
		return model.Supplier{}, newKindError(ErrUnauthorized, "unauthorized")
	}
	if err := u.validator.Struct(in); err != nil {
		return model.Supplier{}, errValidation(err.Error())
	}

	now := u.clock.Now()
	s := model.Supplier{
		ID:        u.idGen.NewID(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created model.Supplier
	err := u.tm.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Suppliers().Create(ctx, s)
		if err != nil {
			return storageErr(u.log, "supplier.create", err)
		}
		created = c
		return storageErr(u.log, "supplier.audit", r.AuditLogs().Create(ctx,
			auditLog(now, ownerID, model.AuditActionCreateSupplier, model.AuditResourceSupplier, c.ID, nil, c)))
	})
	if err != nil {
		return model.Supplier{}, err
	}
	return created, nil
}

func (u *SupplierUsecase) UpdateSupplier(ctx context.Context, actor Actor, supplierID string, in SupplierInput) (model.Supplier, error) {
	if err := u.validator.Struct(in); err != nil {
		return model.Supplier{}, errValidation(err.Error())
	}

	var updated model.Supplier
	err := u.tm.WithinTx(ctx, func(r repo.TxRepos) error {
		cur, err := u.findOwned(ctx, r.Suppliers(), actor, supplierID)
		if err != nil {
			return err
		}

		s := cur
		s.Name = strings.TrimSpace(in.Name)
		s.Phone = strings.TrimSpace(in.Phone)
		s.Email = strings.TrimSpace(in.Email)
		s.UpdatedAt = u.clock.Now()
		if err := r.Suppliers().Update(ctx, s); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound("supplier")
			}
			return storageErr(u.log, "supplier.update", err)
		}
		updated = s

		return storageErr(u.log, "supplier.audit", r.AuditLogs().Create(ctx,
			auditLog(s.UpdatedAt, actor.UserID, model.AuditActionUpdateSupplier, model.AuditResourceSupplier, s.ID, cur, s)))
	})
	if err != nil {
		return model.Supplier{}, err
	}
	return updated, nil
}

func (u *SupplierUsecase) GetSupplier(ctx context.Context, actor Actor, supplierID string) (model.Supplier, error) {
	return u.findOwned(ctx, u.suppliers, actor, supplierID)
}

type ListSuppliersInput struct {
	Q      string
	Limit  int
	Offset int
}

func (u *SupplierUsecase) ListSuppliers(ctx context.Context, ownerID string, in ListSuppliersInput) ([]model.Supplier, error) {
	if ownerID == "" {
		return nil, newKindError(ErrUnauthorized, "unauthorized")
	}
	return u.list(ctx, ownerID, in)
}

// 管理者用：全ユーザーの仕入先
func (u *SupplierUsecase) AdminListSuppliers(ctx context.Context, ownerID string, in ListSuppliersInput) ([]model.Supplier, error) {
	return u.list(ctx, ownerID, in)
}

func (u *SupplierUsecase) list(ctx context.Context, ownerID string, in ListSuppliersInput) ([]model.Supplier, error) {
	if in.Limit < 0 || in.Limit > 500 {
		return nil, errValidation("invalid limit")
	}
	if in.Offset < 0 {
		return nil, errValidation("invalid offset")
	}
	items, err := u.suppliers.List(ctx, repo.SupplierFilter{
		OwnerID: ownerID,
		Q:       strings.TrimSpace(in.Q),
		Limit:   in.Limit,
		Offset:  in.Offset,
	})
	if err != nil {
		return nil, storageErr(u.log, "supplier.list", err)
	}
	return items, nil
}

// 参照している商品が残っていれば削除しない
func (u *SupplierUsecase) DeleteSupplier(ctx context.Context, actor Actor, supplierID string) error {
	return u.tm.WithinTx(ctx, func(r repo.TxRepos) error {
		cur, err := u.findOwned(ctx, r.Suppliers(), actor, supplierID)
		if err != nil {
			return err
		}

		n, err := r.Products().CountBySupplier(ctx, cur.ID)
		if err != nil {
			return storageErr(u.log, "supplier.count_products", err)
		}
		if n > 0 {
			return newKindError(ErrInvalidReference, "supplier is referenced by products")
		}

		if err := r.Suppliers().SoftDelete(ctx, cur.ID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound("supplier")
			}
			return storageErr(u.log, "supplier.delete", err)
		}
		return storageErr(u.log, "supplier.audit", r.AuditLogs().Create(ctx,
			auditLog(u.clock.Now(), actor.UserID, model.AuditActionDeleteSupplier, model.AuditResourceSupplier, cur.ID, cur, nil)))
	})
}

func (u *SupplierUsecase) findOwned(ctx context.Context, suppliers repo.SupplierRepository, actor Actor, supplierID string) (model.Supplier, error) {
	if actor.UserID == "" {
		return model.Supplier{}, newKindError(ErrUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(supplierID) == "" {
		return model.Supplier{}, errValidation("invalid supplier id")
	}
	s, err := suppliers.FindByID(ctx, supplierID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Supplier{}, errNotFound("supplier")
	}
	if err != nil {
		return model.Supplier{}, storageErr(u.log, "supplier.find", err)
	}
	if !actor.CanAccess(s.OwnerID) {
		return model.Supplier{}, errNotFound("supplier")
	}
	return s, nil
}
