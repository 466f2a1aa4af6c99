package handler

import (
	"net/http"

	"stockfield/internal/domain/model"
	"stockfield/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc *usecase.AdminUserUsecase
}

func NewAdminUserHandler(uc *usecase.AdminUserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/users", h.list)
	admin.POST("/users", h.create)
	admin.GET("/users/:id", h.detail)
	admin.PATCH("/users/:id", h.update)
	admin.DELETE("/users/:id", h.delete)
	admin.POST("/users/:id/force-logout", h.ForceLogout)
	admin.GET("/statistics", h.statistics)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	limit, offset, ok := parsePaging(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid paging"))
	}
	users, err := h.uc.ListUsers(c.Request().Context(), usecase.ListUsersInput{
		Role:   c.QueryParam("role"),
		Q:      c.QueryParam("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newList[model.User](users))
}

func (h *AdminUserHandler) create(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	var req usecase.CreateUserInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid body"))
	}
	u, err := h.uc.CreateUser(c.Request().Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *AdminUserHandler) detail(c echo.Context) error {
	u, err := h.uc.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminUserHandler) update(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	var patch usecase.UserPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid body"))
	}
	u, err := h.uc.UpdateUser(c.Request().Context(), actor, c.Param("id"), patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminUserHandler) delete(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}
	if err := h.uc.DeleteUser(c.Request().Context(), actor, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// token_versionを上げて既存トークンを無効化
func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AdminUserHandler) statistics(c echo.Context) error {
	stats, err := h.uc.Statistics(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
