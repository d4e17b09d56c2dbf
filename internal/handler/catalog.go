package handler

import (
	"net/http"

	"otomar/internal/dto"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()

	var query dto.ProductQuery
	if err := bind(c, nil, &query); err != nil {
		return err
	}

	page, err := h.catalogService.Search(ctx, &query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.catalogService.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) ListBrands(c echo.Context) error {
	brands, err := h.catalogService.Brands(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, brands)
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalogService.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}
