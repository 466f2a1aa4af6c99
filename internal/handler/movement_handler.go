package handler

import (
	"net/http"

	"stockfield/internal/domain/model"
	"stockfield/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 入出庫
type MovementHandler struct {
	uc *usecase.MovementUsecase
}

func NewMovementHandler(uc *usecase.MovementUsecase) *MovementHandler {
	return &MovementHandler{uc: uc}
}

func (h *MovementHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/movements/entry", h.entry)
	g.POST("/movements/exit", h.exit)
	g.GET("/movements", h.list)
}

func (h *MovementHandler) entry(c echo.Context) error {
	return h.record(c, model.MovementEntry)
}

func (h *MovementHandler) exit(c echo.Context) error {
	return h.record(c, model.MovementExit)
}

func (h *MovementHandler) record(c echo.Context, typ model.MovementType) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}

	var req usecase.MovementInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid body"))
	}

	var (
		out usecase.MovementResult
		err error
	)
	if typ == model.MovementExit {
		out, err = h.uc.RecordExit(c.Request().Context(), actor.UserID, req)
	} else {
		out, err = h.uc.RecordEntry(c.Request().Context(), actor.UserID, req)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *MovementHandler) list(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	limit, offset, ok := parsePaging(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}

	items, err := h.uc.ListMovements(c.Request().Context(), actor.UserID, usecase.ListMovementsInput{
		ProductID: c.QueryParam("product_id"),
		Type:      c.QueryParam("type"),
		From:      c.QueryParam("from"),
		To:        c.QueryParam("to"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newList[model.Movement](items))
}
