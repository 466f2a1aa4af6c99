package handler

import (
	"net/http"

	"stockfield/internal/domain/model"
	"stockfield/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 操作ログ
type ActivityHandler struct {
	uc *usecase.ActivityUsecase
}

func NewActivityHandler(uc *usecase.ActivityUsecase) *ActivityHandler {
	return &ActivityHandler{uc: uc}
}

func (h *ActivityHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/activity", h.list)
}

// 管理者グループ用（user_idで誰でも見られる）
func (h *ActivityHandler) RegisterAdminRoutes(admin *echo.Group) {
	admin.GET("/activity", h.list)
}

func (h *ActivityHandler) list(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	limit, offset, ok := parsePaging(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}

	logs, err := h.uc.ListActivity(c.Request().Context(), actor, usecase.ListActivityInput{
		UserID:       c.QueryParam("user_id"),
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newList[model.AuditLog](logs))
}
