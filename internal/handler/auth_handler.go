package handler

import (
	"errors"
	"net/http"

	auth "stockfield/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
}

// DIコンストラクタ
func NewAuthHandler(registerUC *auth.RegisterUserUsecase, loginUC *auth.LoginUsecase) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
	}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
}

// RegisterはPOST /auth/registerのハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req auth.RegisterUserInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid body"))
	}

	out, err := h.registerUC.Execute(c.Request().Context(), req)
	if err != nil {
		var ie *auth.InputError
		switch {
		case errors.As(err, &ie):
			return c.JSON(http.StatusBadRequest, errorJSON(ie.Message))
		case errors.Is(err, auth.ErrWeakPassword):
			return c.JSON(http.StatusBadRequest, errorJSON("weak password"))
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, errorJSON("email already exists"))
		case errors.Is(err, auth.ErrDocumentAlreadyExists):
			return c.JSON(http.StatusConflict, errorJSON("document already exists"))
		default:
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
		}
	}

	return c.JSON(http.StatusCreated, out)
}

// LoginはPOST /auth/loginのハンドラ
// トークンと一緒にログイン時点のダッシュボードを返す
func (h *AuthHandler) Login(c echo.Context) error {
	var req auth.LoginInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorJSON("invalid body"))
	}

	out, err := h.loginUC.Execute(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, errorJSON("invalid credentials"))
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, errorJSON("user is inactive"))
		default:
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
		}
	}

	return c.JSON(http.StatusOK, out)
}
