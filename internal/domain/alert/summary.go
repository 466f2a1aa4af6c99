package alert

import (
	"sort"
	"time"

	"stockfield/internal/domain/model"
)

type NextExpiring struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	ExpiryDate    string `json:"expiry_date"`
	DaysRemaining int    `json:"days_remaining"`
}

// 期限アラートの集計
type AlertSummary struct {
	ExpiredCount        int           `json:"expired_count"`
	ExpiringCount       int           `json:"expiring_count"`
	NextExpiringProduct *NextExpiring `json:"next_expiring_product"`
	TotalAlerts         int           `json:"total_alerts"`
}

type CriticalProduct struct {
	ProductID        string `json:"product_id"`
	Name             string `json:"name"`
	Quantity         int64  `json:"quantity"`
	MinimumThreshold int64  `json:"minimum_threshold"`
	Needed           int64  `json:"needed"`
}

// 在庫アラートの集計
type StockSummary struct {
	LowStockCount       int              `json:"low_stock_count"`
	OutOfStockCount     int              `json:"out_of_stock_count"`
	TotalMonitored      int              `json:"total_monitored"`
	MostCriticalProduct *CriticalProduct `json:"most_critical_product"`
	TotalAlerts         int              `json:"total_alerts"`
}

type Dashboard struct {
	Expiry       AlertSummary  `json:"expiry"`
	Stock        StockSummary  `json:"stock"`
	ExpiryAlerts []ExpiryAlert `json:"expiry_alerts"`
	StockAlerts  []StockAlert  `json:"stock_alerts"`
}

// 保存済みの状態から数える。スイープはやり直さない。
func SummarizeExpiry(products []model.Product, today time.Time) AlertSummary {
	var s AlertSummary
	var next *NextExpiring
	var nextDate time.Time

	for _, p := range products {
		switch p.Status {
		case model.StatusExpired:
			s.ExpiredCount++
		case model.StatusExpiringSoon:
			s.ExpiringCount++
		}

		if p.Status == model.StatusExpired {
			continue
		}
		expiry, err := ParseExpiry(p.ExpiryDate)
		if err != nil || expiry == nil {
			continue
		}
		if next == nil || expiry.Before(nextDate) || (expiry.Equal(nextDate) && p.Name < next.Name) {
			nextDate = *expiry
			next = &NextExpiring{
				ProductID:     p.ID,
				Name:          p.Name,
				ExpiryDate:    FormatDate(*expiry),
				DaysRemaining: DaysUntil(*expiry, today),
			}
		}
	}

	s.NextExpiringProduct = next
	s.TotalAlerts = s.ExpiredCount + s.ExpiringCount
	return s
}

func SummarizeStock(products []model.Product) StockSummary {
	var s StockSummary
	for _, p := range products {
		if p.IsMonitored() {
			s.TotalMonitored++
		}
		if p.Quantity == 0 && p.Status != model.StatusExpired {
			s.OutOfStockCount++
		}
	}

	alerts := ScanLowStock(products)
	s.LowStockCount = len(alerts)
	if len(alerts) > 0 {
		top := alerts[0]
		s.MostCriticalProduct = &CriticalProduct{
			ProductID:        top.ProductID,
			Name:             top.Name,
			Quantity:         top.Quantity,
			MinimumThreshold: top.MinimumThreshold,
			Needed:           top.Deficit,
		}
	}
	s.TotalAlerts = s.LowStockCount
	return s
}

// 保存済みの状態が期限系の商品を期限の近い順に返す。
// 期限が読めない商品は含めない。
func ExpiryAlerts(products []model.Product, today time.Time) []ExpiryAlert {
	type row struct {
		alert  ExpiryAlert
		expiry time.Time
	}
	rows := []row{}
	for _, p := range products {
		if !p.Status.IsExpiryDriven() {
			continue
		}
		expiry, err := ParseExpiry(p.ExpiryDate)
		if err != nil || expiry == nil {
			continue
		}
		days := DaysUntil(*expiry, today)
		rows = append(rows, row{
			expiry: *expiry,
			alert: ExpiryAlert{
				ProductID:     p.ID,
				Name:          p.Name,
				OwnerID:       p.OwnerID,
				ExpiryDate:    FormatDate(*expiry),
				Batch:         p.Batch,
				Quantity:      p.Quantity,
				Status:        p.Status,
				DaysRemaining: days,
				Severity:      ExpirySeverity(days),
			},
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].expiry.Equal(rows[j].expiry) {
			return rows[i].expiry.Before(rows[j].expiry)
		}
		return rows[i].alert.ProductID < rows[j].alert.ProductID
	})

	out := make([]ExpiryAlert, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.alert)
	}
	return out
}

func BuildDashboard(products []model.Product, today time.Time) Dashboard {
	return Dashboard{
		Expiry:       SummarizeExpiry(products, today),
		Stock:        SummarizeStock(products),
		ExpiryAlerts: ExpiryAlerts(products, today),
		StockAlerts:  ScanLowStock(products),
	}
}
