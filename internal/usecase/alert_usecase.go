package usecase

import (
	"context"
	"errors"
	"fmt"

	"stockfield/internal/domain/alert"
	"stockfield/internal/domain/model"
	repo "stockfield/internal/repository"

	"go.uber.org/zap"
)

type AlertUsecase struct {
	tm         repo.TransactionManager
	products   repo.ProductRepository
	clock      Clock
	log        *zap.Logger
	windowDays int
	maxRetries int
}

// DI
func NewAlertUsecase(
	tm repo.TransactionManager,
	products repo.ProductRepository,
	clock Clock,
	log *zap.Logger,
	windowDays int,
	maxRetries int,
) *AlertUsecase {
	return &AlertUsecase{
		tm:         tm,
		products:   products,
		clock:      clock,
		log:        log,
		windowDays: alert.NormalizeWindow(windowDays),
		maxRetries: maxRetries,
	}
}

type SweepResult struct {
	CheckedAt   string              `json:"checked_at"`
	Alerts      []alert.ExpiryAlert `json:"alerts"`
	Transitions []alert.Transition  `json:"transitions"`
	Skipped     []alert.Skipped     `json:"skipped"`
	TotalAlerts int                 `json:"total_alerts"`
}

// SweepExpiry は期限付きの全商品を判定し直し、変わった状態だけ保存する。
// バッチ全体を1つのtxで書き、version競合ならtxごと計画し直す。
// actorIDが空でなければ操作ログを1件残す。
func (u *AlertUsecase) SweepExpiry(ctx context.Context, actorID string) (SweepResult, error) {
	today := alert.Day(u.clock.Now())

	var plan alert.SweepPlan
	err := withRetry(ctx, u.tm, u.maxRetries, u.log, "sweep_expiry", func(r repo.TxRepos) error {
		products, err := r.Products().List(ctx, repo.ProductFilter{WithExpiryOnly: true})
		if err != nil {
			return storageErr(u.log, "sweep.list", err)
		}

		plan = alert.PlanSweep(products, today, u.windowDays)
		for _, up := range plan.Updates {
			err := r.Products().UpdateStatus(ctx, repo.ProductStatusUpdate{
				ID:              up.ProductID,
				Version:         up.Version,
				Status:          up.Status,
				DaysUntilExpiry: up.DaysUntilExpiry,
			})
			if errors.Is(err, repo.ErrNotFound) {
				// 読んだ後に削除された
				return repo.ErrVersionConflict
			}
			if err != nil {
				return storageErr(u.log, "sweep.update_status", err)
			}
		}

		if actorID != "" && len(plan.Transitions) > 0 {
			log := auditLog(u.clock.Now(), actorID, model.AuditActionExpirySweep, model.AuditResourceProduct, "*",
				nil, map[string]int{"transitions": len(plan.Transitions), "alerts": len(plan.Alerts)})
			if err := r.AuditLogs().Create(ctx, log); err != nil {
				return storageErr(u.log, "sweep.audit", err)
			}
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}

	for _, s := range plan.Skipped {
		u.log.Warn("skipping product with malformed expiry date",
			zap.String("product_id", s.ProductID),
			zap.String("expiry_date", s.RawExpiry),
		)
	}
	u.log.Info("expiry sweep done",
		zap.String("today", alert.FormatDate(today)),
		zap.Int("alerts", len(plan.Alerts)),
		zap.Int("transitions", len(plan.Transitions)),
		zap.Int("skipped", len(plan.Skipped)),
	)

	return SweepResult{
		CheckedAt:   alert.FormatDate(today),
		Alerts:      plan.Alerts,
		Transitions: plan.Transitions,
		Skipped:     plan.Skipped,
		TotalAlerts: len(plan.Alerts),
	}, nil
}

func (u *AlertUsecase) ownerProducts(ctx context.Context, ownerID string) ([]model.Product, error) {
	if ownerID == "" {
		return nil, newKindError(ErrUnauthorized, "unauthorized")
	}
	products, err := u.products.List(ctx, repo.ProductFilter{OwnerID: ownerID})
	if err != nil {
		return nil, storageErr(u.log, "alerts.list", err)
	}
	return products, nil
}

// 下限割れの商品（少ない順）
func (u *AlertUsecase) ScanLowStock(ctx context.Context, ownerID string) ([]alert.StockAlert, error) {
	products, err := u.ownerProducts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return alert.ScanLowStock(products), nil
}

func (u *AlertUsecase) SummarizeExpiry(ctx context.Context, ownerID string) (alert.AlertSummary, error) {
	products, err := u.ownerProducts(ctx, ownerID)
	if err != nil {
		return alert.AlertSummary{}, err
	}
	return alert.SummarizeExpiry(products, u.clock.Now()), nil
}

func (u *AlertUsecase) SummarizeStock(ctx context.Context, ownerID string) (alert.StockSummary, error) {
	products, err := u.ownerProducts(ctx, ownerID)
	if err != nil {
		return alert.StockSummary{}, err
	}
	return alert.SummarizeStock(products), nil
}

// 期限系の状態になっている商品
func (u *AlertUsecase) ListExpiryAlerts(ctx context.Context, ownerID string) ([]alert.ExpiryAlert, error) {
	products, err := u.ownerProducts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return alert.ExpiryAlerts(products, u.clock.Now()), nil
}

func (u *AlertUsecase) Dashboard(ctx context.Context, ownerID string) (alert.Dashboard, error) {
	products, err := u.ownerProducts(ctx, ownerID)
	if err != nil {
		return alert.Dashboard{}, err
	}
	return alert.BuildDashboard(products, u.clock.Now()), nil
}

type CheckResult struct {
	Sweep   SweepResult        `json:"sweep"`
	Summary alert.AlertSummary `json:"summary"`
	Message string             `json:"message"`
}

// 手動の再チェック。全体をスイープしてから呼び出し元の集計を返す。
func (u *AlertUsecase) ForceCheck(ctx context.Context, ownerID string) (CheckResult, error) {
	sweep, err := u.SweepExpiry(ctx, ownerID)
	if err != nil {
		return CheckResult{}, err
	}
	summary, err := u.SummarizeExpiry(ctx, ownerID)
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{
		Sweep:   sweep,
		Summary: summary,
		Message: fmt.Sprintf("check completed, %d alert(s) found", summary.TotalAlerts),
	}, nil
}

const ValidityNoExpiry = "no_expiry"

type ValidityCheck struct {
	ProductID      string              `json:"product_id"`
	Name           string              `json:"name"`
	ExpiryDate     *string             `json:"expiry_date"`
	DaysRemaining  *int                `json:"days_remaining"`
	Status         string              `json:"status"`
	CurrentStatus  model.ProductStatus `json:"current_status"`
	Recommendation string              `json:"recommendation,omitempty"`
}

// 1商品だけ判定する。保存はしない。
func (u *AlertUsecase) ClassifySingle(ctx context.Context, ownerID string, productID string) (ValidityCheck, error) {
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ValidityCheck{}, errNotFound("product")
	}
	if err != nil {
		return ValidityCheck{}, storageErr(u.log, "classify.find", err)
	}
	if p.OwnerID != ownerID {
		return ValidityCheck{}, errNotFound("product")
	}

	out := ValidityCheck{
		ProductID:     p.ID,
		Name:          p.Name,
		CurrentStatus: p.Status,
	}

	expiry, err := alert.ParseExpiry(p.ExpiryDate)
	if err != nil {
		return ValidityCheck{}, newKindError(ErrMalformedData, "product has a malformed expiry date")
	}
	if expiry == nil {
		out.Status = ValidityNoExpiry
		out.Recommendation = "product has no expiry date"
		return out, nil
	}

	c := alert.Classify(*expiry, u.clock.Now(), u.windowDays)
	days := c.DaysRemaining
	out.ExpiryDate = strPtr(alert.FormatDate(*expiry))
	out.DaysRemaining = &days
	out.Status = string(c.Status)
	if alert.ExpirySeverity(days) == alert.SeverityHigh {
		out.Recommendation = "consume immediately"
	} else {
		out.Recommendation = "watch the deadline"
	}
	return out, nil
}
