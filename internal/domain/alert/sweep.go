package alert

import (
	"time"

	"stockfield/internal/domain/model"
)

type ExpiryAlert struct {
	ProductID     string              `json:"product_id"`
	Name          string              `json:"name"`
	OwnerID       string              `json:"owner_id"`
	ExpiryDate    string              `json:"expiry_date"`
	Batch         *string             `json:"batch,omitempty"`
	Quantity      int64               `json:"quantity"`
	Status        model.ProductStatus `json:"status"`
	DaysRemaining int                 `json:"days_remaining"`
	Severity      Severity            `json:"severity"`
}

type Transition struct {
	ProductID     string              `json:"product_id"`
	Name          string              `json:"name"`
	From          model.ProductStatus `json:"old_status"`
	To            model.ProductStatus `json:"new_status"`
	DaysRemaining int                 `json:"days_remaining"`
}

// 永続化すべき変更。Versionは読み取り時点の値。
type StatusUpdate struct {
	ProductID       string
	Version         int64
	Status          model.ProductStatus
	DaysUntilExpiry *int
}

// 期限の文字列が壊れていて判定できなかった商品
type Skipped struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	RawExpiry string `json:"raw_expiry"`
}

type SweepPlan struct {
	Alerts      []ExpiryAlert
	Transitions []Transition
	Updates     []StatusUpdate
	Skipped     []Skipped
}

// PlanSweep は期限付きの全商品を判定し、書き込むべき変更を返す。
// 何も書き込まない。同じ入力と同じtodayで2回目を計画すると Updates は空になる。
func PlanSweep(products []model.Product, today time.Time, windowDays int) SweepPlan {
	plan := SweepPlan{
		Alerts:      []ExpiryAlert{},
		Transitions: []Transition{},
		Updates:     []StatusUpdate{},
		Skipped:     []Skipped{},
	}

	for _, p := range products {
		if !p.HasExpiryDate() {
			continue
		}
		expiry, err := ParseExpiry(p.ExpiryDate)
		if err != nil {
			plan.Skipped = append(plan.Skipped, Skipped{ProductID: p.ID, Name: p.Name, RawExpiry: *p.ExpiryDate})
			continue
		}

		c := Classify(*expiry, today, windowDays)
		next := nextStatus(p, c)

		if next.IsExpiryDriven() {
			plan.Alerts = append(plan.Alerts, ExpiryAlert{
				ProductID:     p.ID,
				Name:          p.Name,
				OwnerID:       p.OwnerID,
				ExpiryDate:    FormatDate(*expiry),
				Batch:         p.Batch,
				Quantity:      p.Quantity,
				Status:        next,
				DaysRemaining: c.DaysRemaining,
				Severity:      ExpirySeverity(c.DaysRemaining),
			})
		}

		statusChanged := next != p.Status
		daysChanged := p.DaysUntilExpiry == nil || *p.DaysUntilExpiry != c.DaysRemaining
		if !statusChanged && !daysChanged {
			continue
		}

		days := c.DaysRemaining
		plan.Updates = append(plan.Updates, StatusUpdate{
			ProductID:       p.ID,
			Version:         p.Version,
			Status:          next,
			DaysUntilExpiry: &days,
		})
		if statusChanged {
			plan.Transitions = append(plan.Transitions, Transition{
				ProductID:     p.ID,
				Name:          p.Name,
				From:          p.Status,
				To:            next,
				DaysRemaining: c.DaysRemaining,
			})
		}
	}
	return plan
}

// 期限系の判定が出ればそれを採用。
// 余裕ありに戻った場合だけ期限系の状態を解除し、在庫系の状態(out_of_stock)には触れない。
func nextStatus(p model.Product, c Classification) model.ProductStatus {
	if c.Status.IsExpiryDriven() {
		return c.Status
	}
	if p.Status.IsExpiryDriven() {
		if p.Quantity == 0 {
			return model.StatusOutOfStock
		}
		return model.StatusAvailable
	}
	return p.Status
}
