package alert

import (
	"sort"

	"stockfield/internal/domain/model"
)

type StockAlert struct {
	ProductID        string   `json:"product_id"`
	Name             string   `json:"name"`
	SupplierID       string   `json:"supplier_id"`
	Quantity         int64    `json:"quantity"`
	MinimumThreshold int64    `json:"minimum_threshold"`
	Deficit          int64    `json:"deficit"`
	Severity         Severity `json:"severity"`
}

// 下限割れ判定。期限切れの商品は対象外。
func IsLowStock(p model.Product) bool {
	return p.IsMonitored() && p.Quantity <= p.MinimumThreshold && p.Status != model.StatusExpired
}

// ScanLowStock は下限を割った商品を数量の少ない順に返す。
// 同数は名前、IDの順。先頭が最も深刻。
func ScanLowStock(products []model.Product) []StockAlert {
	out := []StockAlert{}
	for _, p := range products {
		if !IsLowStock(p) {
			continue
		}
		sev := SeverityLow
		if p.Quantity == 0 {
			sev = SeverityCritical
		}
		out = append(out, StockAlert{
			ProductID:        p.ID,
			Name:             p.Name,
			SupplierID:       p.SupplierID,
			Quantity:         p.Quantity,
			MinimumThreshold: p.MinimumThreshold,
			Deficit:          p.MinimumThreshold - p.Quantity,
			Severity:         sev,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}
