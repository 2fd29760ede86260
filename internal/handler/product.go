package handler

import (
	"net/http"

	"circular-storefront/internal/repository"
	"circular-storefront/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	page, size := pageParams(c)
	products, total, err := h.productService.List(ctx, repository.ProductFilter{
		Category:    c.QueryParam("category"),
		InStockOnly: c.QueryParam("in_stock") == "true",
		Page:        page,
		PageSize:    size,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, newPage(products, total, page, size))
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.productService.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}
