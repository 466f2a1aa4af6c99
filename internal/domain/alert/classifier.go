// Package alert は在庫と期限からアラートを導出する。
// DBにもHTTPにも依存しない純粋な計算だけを置く。
package alert

import (
	"errors"
	"strings"
	"time"

	"stockfield/internal/domain/model"
)

// 期限アラートの既定の日数
const DefaultWindowDays = 7

// これ以下の残り日数は high
const highSeverityDays = 3

const dateLayout = "2006-01-02"

var ErrMalformedDate = errors.New("malformed expiry date")

type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityCritical Severity = "critical"
)

// 0以下は既定値
func NormalizeWindow(windowDays int) int {
	if windowDays <= 0 {
		return DefaultWindowDays
	}
	return windowDays
}

// 時刻を切り捨ててUTCの0時にそろえる
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return Day(t).Format(dateLayout)
}

// nil/空文字は期限なし(nil, nil)
func ParseExpiry(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, ErrMalformedDate
	}
	d := Day(t)
	return &d, nil
}

// 期限までの日数（負なら期限切れ）
func DaysUntil(expiry, today time.Time) int {
	return int(Day(expiry).Sub(Day(today)).Hours() / 24)
}

type Classification struct {
	Status        model.ProductStatus `json:"status"`
	DaysRemaining int                 `json:"days_remaining"`
}

func Classify(expiry, today time.Time, windowDays int) Classification {
	windowDays = NormalizeWindow(windowDays)
	days := DaysUntil(expiry, today)

	switch {
	case days < 0:
		return Classification{Status: model.StatusExpired, DaysRemaining: days}
	case days <= windowDays:
		return Classification{Status: model.StatusExpiringSoon, DaysRemaining: days}
	default:
		return Classification{Status: model.StatusAvailable, DaysRemaining: days}
	}
}

func ExpirySeverity(daysRemaining int) Severity {
	if daysRemaining < 0 || daysRemaining <= highSeverityDays {
		return SeverityHigh
	}
	return SeverityMedium
}

// 数量と期限から状態を決める。期限系の状態が在庫系より優先。
// 戻り値の日数は期限なしならnil。
func DeriveStatus(quantity int64, expiry *time.Time, today time.Time, windowDays int) (model.ProductStatus, *int) {
	var days *int
	if expiry != nil {
		c := Classify(*expiry, today, windowDays)
		d := c.DaysRemaining
		days = &d
		if c.Status.IsExpiryDriven() {
			return c.Status, days
		}
	}
	if quantity == 0 {
		return model.StatusOutOfStock, days
	}
	return model.StatusAvailable, days
}
