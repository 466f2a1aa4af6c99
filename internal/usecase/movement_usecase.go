package usecase

import (
	"context"
	"errors"
	"time"

	"stockfield/internal/domain/alert"
	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"go.uber.org/zap"
)

type MovementUsecase struct {
	tm         repo.TransactionManager
	movements  repo.MovementRepository
	clock      Clock
	idGen      IDGenerator
	validator  StructValidator
	log        *zap.Logger
	windowDays int
	maxRetries int
}

// DI
func NewMovementUsecase(
	tm repo.TransactionManager,
	movements repo.MovementRepository,
	clock Clock,
	idGen IDGenerator,
	validator StructValidator,
	log *zap.Logger,
	windowDays int,
	maxRetries int,
) *MovementUsecase {
	return &MovementUsecase{
		tm:         tm,
		movements:  movements,
		clock:      clock,
		idGen:      idGen,
		validator:  validator,
		log:        log,
		windowDays: alert.NormalizeWindow(windowDays),
		maxRetries: maxRetries,
	}
}

// POST /movements/entry, /movements/exit の入力
type MovementInput struct {
	ProductID  string  `json:"product_id" validate:"required"`
	SupplierID string  `json:"supplier_id" validate:"required"`
	Quantity   int64   `json:"quantity" validate:"gt=0"`
	Date       *string `json:"date" validate:"omitempty,isodate"`
}

type MovementResult struct {
	Movement    model.Movement     `json:"movement"`
	Product     model.Product      `json:"product"`
	StockAlerts []alert.StockAlert `json:"stock_alerts"`
}

func (u *MovementUsecase) RecordEntry(ctx context.Context, ownerID string, in MovementInput) (MovementResult, error) {
	return u.record(ctx, ownerID, model.MovementEntry, in)
}

func (u *MovementUsecase) RecordExit(ctx context.Context, ownerID string, in MovementInput) (MovementResult, error) {
	return u.record(ctx, ownerID, model.MovementExit, in)
}

// 商品の読み取り、数量と状態の更新、履歴の追記、下限チェックまでを1つのtxで行う
func (u *MovementUsecase) record(ctx context.Context, ownerID string, typ model.MovementType, in MovementInput) (MovementResult, error) {
	if ownerID == "" {
		return MovementResult{}, newKindError(ErrUnauthorized, "unauthorized")
	}
	if err := u.validator.Struct(in); err != nil {
		return MovementResult{}, errValidation(err.Error())
	}

	now := u.clock.Now()
	date := alert.Day(now)
	if in.Date != nil {
		d, err := alert.ParseExpiry(in.Date)
		if err != nil || d == nil {
			return MovementResult{}, errValidation("date must be YYYY-MM-DD")
		}
		date = *d
	}

	var out MovementResult
	err := withRetry(ctx, u.tm, u.maxRetries, u.log, "record_"+string(typ), func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && p.OwnerID != ownerID) {
			return errNotFound("product")
		}
		if err != nil {
			return storageErr(u.log, "movement.find_product", err)
		}

		s, err := r.Suppliers().FindByID(ctx, in.SupplierID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && s.OwnerID != ownerID) {
			return newKindError(ErrInvalidReference, "supplier not found")
		}
		if err != nil {
			return storageErr(u.log, "movement.find_supplier", err)
		}

		before := p.Quantity
		after := before + in.Quantity
		if typ == model.MovementExit {
			if before < in.Quantity {
				return newKindError(ErrInsufficientStock, "insufficient stock")
			}
			after = before - in.Quantity
		}

		status, days := u.deriveStatus(p, after, now)
		updated := p
		updated.Quantity = after
		updated.Status = status
		if days != nil || !p.HasExpiryDate() {
			updated.DaysUntilExpiry = days
		}
		if err := r.Products().Update(ctx, updated); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound("product")
			}
			return storageErr(u.log, "movement.update_product", err)
		}
		updated.Version++

		m := model.Movement{
			ID:             u.idGen.NewID(),
			ProductID:      p.ID,
			SupplierID:     s.ID,
			OwnerID:        ownerID,
			Type:           typ,
			Quantity:       in.Quantity,
			Date:           date,
			QuantityBefore: before,
			QuantityAfter:  after,
			CreatedAt:      now,
		}
		if err := r.Movements().Append(ctx, m); err != nil {
			return storageErr(u.log, "movement.append", err)
		}

		action := model.AuditActionStockEntry
		if typ == model.MovementExit {
			action = model.AuditActionStockExit
		}
		if err := r.AuditLogs().Create(ctx, auditLog(now, ownerID, action, model.AuditResourceMovement, m.ID,
			map[string]interface{}{"quantity": before, "status": p.Status},
			map[string]interface{}{"quantity": after, "status": status, "product_id": p.ID},
		)); err != nil {
			return storageErr(u.log, "movement.audit", err)
		}

		// 同じtxの中で下限チェック
		owned, err := r.Products().List(ctx, repo.ProductFilter{OwnerID: ownerID})
		if err != nil {
			return storageErr(u.log, "movement.scan", err)
		}

		out = MovementResult{
			Movement:    m,
			Product:     updated,
			StockAlerts: alert.ScanLowStock(owned),
		}
		return nil
	})
	if err != nil {
		return MovementResult{}, err
	}

	u.log.Info("movement recorded",
		zap.String("type", string(typ)),
		zap.String("product_id", out.Product.ID),
		zap.Int64("quantity", in.Quantity),
		zap.Int64("quantity_after", out.Product.Quantity),
		zap.String("status", string(out.Product.Status)),
	)
	return out, nil
}

// 期限が読めなければ在庫だけで決める
func (u *MovementUsecase) deriveStatus(p model.Product, quantity int64, now time.Time) (model.ProductStatus, *int) {
	expiry, err := alert.ParseExpiry(p.ExpiryDate)
	if err != nil {
		u.log.Warn("ignoring malformed expiry date", zap.String("product_id", p.ID))
		expiry = nil
	}
	return alert.DeriveStatus(quantity, expiry, now, u.windowDays)
}

// GET /movements の入力
type ListMovementsInput struct {
	ProductID string
	Type      string
	From      string
	To        string
	Limit     int
	Offset    int
}

// 新しい順
func (u *MovementUsecase) ListMovements(ctx context.Context, ownerID string, in ListMovementsInput) ([]model.Movement, error) {
	if ownerID == "" {
		return nil, newKindError(ErrUnauthorized, "unauthorized")
	}
	if in.Limit < 0 || in.Limit > 200 {
		return nil, errValidation("invalid limit")
	}
	if in.Offset < 0 {
		return nil, errValidation("invalid offset")
	}

	f := repo.MovementFilter{
		OwnerID:   ownerID,
		ProductID: in.ProductID,
		Limit:     in.Limit,
		Offset:    in.Offset,
	}
	if in.Type != "" {
		t, err := model.ParseMovementType(in.Type)
		if err != nil {
			return nil, errValidation("invalid type")
		}
		f.Type = &t
	}
	if in.From != "" {
		d, err := alert.ParseExpiry(&in.From)
		if err != nil {
			return nil, errValidation("from must be YYYY-MM-DD")
		}
		f.From = d
	}
	if in.To != "" {
		d, err := alert.ParseExpiry(&in.To)
		if err != nil {
			return nil, errValidation("to must be YYYY-MM-DD")
		}
		f.To = d
	}

	items, err := u.movements.List(ctx, f)
	if err != nil {
		return nil, storageErr(u.log, "movement.list", err)
	}
	return items, nil
}
