package handler

import (
	"net/http"

	"stockfield/internal/domain/alert"
	"stockfield/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 期限・在庫アラートとダッシュボード
type AlertHandler struct {
	uc *usecase.AlertUsecase
}

func NewAlertHandler(uc *usecase.AlertUsecase) *AlertHandler {
	return &AlertHandler{uc: uc}
}

// g はJWT必須のグループ
func (h *AlertHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/alerts/check", h.check)
	g.GET("/alerts/expiry", h.expiry)
	g.GET("/alerts/summary", h.expirySummary)
	g.GET("/alerts/stock", h.stock)
	g.GET("/alerts/stock/summary", h.stockSummary)
	g.GET("/dashboard", h.dashboard)
	g.POST("/products/:id/validity", h.validity)
}

func (h *AlertHandler) check(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	out, err := h.uc.ForceCheck(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AlertHandler) expiry(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	items, err := h.uc.ListExpiryAlerts(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newList[alert.ExpiryAlert](items))
}

func (h *AlertHandler) expirySummary(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	out, err := h.uc.SummarizeExpiry(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AlertHandler) stock(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	items, err := h.uc.ScanLowStock(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newList[alert.StockAlert](items))
}

func (h *AlertHandler) stockSummary(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	out, err := h.uc.SummarizeStock(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AlertHandler) dashboard(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	out, err := h.uc.Dashboard(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AlertHandler) validity(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	out, err := h.uc.ClassifySingle(c.Request().Context(), actor.UserID, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
