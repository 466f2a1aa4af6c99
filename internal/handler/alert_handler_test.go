package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockfield/internal/domain/alert"
	"stockfield/internal/domain/model"
	"stockfield/internal/handler"
	"stockfield/internal/middleware"
	"stockfield/internal/repository"
	"stockfield/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 読み取りだけ使う。他のメソッドは呼ばれたらpanic。
type readOnlyProducts struct {
	repository.ProductRepository
	items []model.Product
}

func (r readOnlyProducts) FindByID(ctx context.Context, id string) (model.Product, error) {
	for _, p := range r.items {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, repository.ErrNotFound
}

func (r readOnlyProducts) List(ctx context.Context, f repository.ProductFilter) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range r.items {
		if f.OwnerID == "" || p.OwnerID == f.OwnerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func strp(s string) *string { return &s }

func newAlertEcho(userID string) *echo.Echo {
	products := readOnlyProducts{items: []model.Product{
		{ID: "p-1", OwnerID: "u-1", Name: "Leite", Quantity: 0, MinimumThreshold: 2, ExpiryDate: strp("2026-03-12"), Status: model.StatusExpiringSoon},
		{ID: "p-2", OwnerID: "u-1", Name: "Milho", Quantity: 1, MinimumThreshold: 5, Status: model.StatusAvailable},
		{ID: "p-3", OwnerID: "u-2", Name: "Trigo", Quantity: 0, MinimumThreshold: 5, Status: model.StatusOutOfStock},
	}}
	uc := usecase.NewAlertUsecase(nil, products, fixedClock{now: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}, zap.NewNop(), 7, 3)

	e := echo.New()
	g := e.Group("", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID != "" {
				c.Set(middleware.CtxUserIDKey, userID)
				c.Set(middleware.CtxUserRoleKey, "regular")
			}
			return next(c)
		}
	})
	handler.NewAlertHandler(uc).RegisterRoutes(g)
	return e
}

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAlertHandler_Dashboard(t *testing.T) {
	rec := serve(newAlertEcho("u-1"), http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var dash alert.Dashboard
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dash))
	assert.Equal(t, 1, dash.Expiry.ExpiringCount)
	assert.Equal(t, 2, dash.Stock.LowStockCount)
	require.Len(t, dash.StockAlerts, 2)
	assert.Equal(t, "p-1", dash.StockAlerts[0].ProductID)
	require.Len(t, dash.ExpiryAlerts, 1)
	assert.Equal(t, alert.SeverityHigh, dash.ExpiryAlerts[0].Severity)
}

func TestAlertHandler_StockList(t *testing.T) {
	rec := serve(newAlertEcho("u-1"), http.MethodGet, "/alerts/stock")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []alert.StockAlert `json:"items"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, alert.SeverityCritical, body.Items[0].Severity)
}

func TestAlertHandler_Validity(t *testing.T) {
	rec := serve(newAlertEcho("u-1"), http.MethodPost, "/products/p-1/validity")
	require.Equal(t, http.StatusOK, rec.Code)

	var out usecase.ValidityCheck
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "expiring_soon", out.Status)
	assert.Equal(t, 2, *out.DaysRemaining)

	// 他人の商品
	rec = serve(newAlertEcho("u-1"), http.MethodPost, "/products/p-3/validity")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlertHandler_Unauthorized(t *testing.T) {
	rec := serve(newAlertEcho(""), http.MethodGet, "/alerts/summary")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
