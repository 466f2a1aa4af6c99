package handler

import (
	"net/http"
	"strconv"

	"stockfield/internal/domain/model"
	"stockfield/internal/middleware"
	"stockfield/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse は { message: string } の形。
type SuccessResponse struct {
	Message string `json:"message"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func errorJSON(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

// AuthJWT/TokenVersionGuardが入れた値からActorを作る
func getActor(c echo.Context) (usecase.Actor, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || id == "" {
		return usecase.Actor{}, false
	}
	rawRole, _ := c.Get(middleware.CtxUserRoleKey).(string)
	role, err := model.ParseRole(rawRole)
	if err != nil {
		return usecase.Actor{}, false
	}
	return usecase.Actor{UserID: id, Role: role}, true
}

// limit/offset（未指定は0）
func parsePaging(c echo.Context) (limit int, offset int, ok bool) {
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		offset = o
	}
	return limit, offset, true
}
