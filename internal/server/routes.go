package server

import (
	"stockfield/internal/config"
	"stockfield/internal/handler"
	"stockfield/internal/middleware"
	"stockfield/internal/repository"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に使うハンドラ一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Supplier     *handler.SupplierHandler
	Movement     *handler.MovementHandler
	Alert        *handler.AlertHandler
	Activity     *handler.ActivityHandler
	AdminProduct *handler.AdminProductHandler
	AdminUser    *handler.AdminUserHandler
}

// RegisterRoutes は公開ルート・認証ルート・/admin を登録する
func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	// /auth/register, /auth/login は認証なし
	h.Auth.RegisterRoutes(e)

	// JWT必須 + token_version一致
	api := e.Group("",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	)
	h.Product.RegisterRoutes(api)
	h.Supplier.RegisterRoutes(api)
	h.Movement.RegisterRoutes(api)
	h.Alert.RegisterRoutes(api)
	h.Activity.RegisterRoutes(api)

	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin",
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminUser.RegisterRoutes(admin)
	h.Activity.RegisterAdminRoutes(admin)
}
