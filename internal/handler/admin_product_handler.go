package handler

import (
	"net/http"

	"stockfield/internal/domain/model"
	"stockfield/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/products と /admin/suppliers をまとめる
type AdminProductHandler struct {
	products  *usecase.ProductUsecase
	suppliers *usecase.SupplierUsecase
}

// DI
func NewAdminProductHandler(products *usecase.ProductUsecase, suppliers *usecase.SupplierUsecase) *AdminProductHandler {
	return &AdminProductHandler{products: products, suppliers: suppliers}
}

// adminグループに登録（JWT + token_version + ADMINはserver側で掛ける）
func (h *AdminProductHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/products", h.listProducts)
	admin.GET("/products/stats", h.productStats)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.GET("/suppliers", h.listSuppliers)
	admin.DELETE("/suppliers/:id", h.deleteSupplier)
}

// owner_id未指定なら全ユーザー分
func (h *AdminProductHandler) listProducts(c echo.Context) error {
	limit, offset, ok := parsePaging(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid paging"})
	}

	items, err := h.products.AdminListProducts(c.Request().Context(), c.QueryParam("owner_id"), usecase.ListProductsInput{
		Status:     c.QueryParam("status"),
		Q:          c.QueryParam("q"),
		SupplierID: c.QueryParam("supplier_id"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newList[model.Product](items))
}

func (h *AdminProductHandler) productStats(c echo.Context) error {
	stats, err := h.products.AdminProductStats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.products.DeleteProduct(c.Request().Context(), actor, c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) listSuppliers(c echo.Context) error {
	limit, offset, ok := parsePaging(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid paging"})
	}

	items, err := h.suppliers.AdminListSuppliers(c.Request().Context(), c.QueryParam("owner_id"), usecase.ListSuppliersInput{
		Q:      c.QueryParam("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newList[model.Supplier](items))
}

func (h *AdminProductHandler) deleteSupplier(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.suppliers.DeleteSupplier(c.Request().Context(), actor, c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
