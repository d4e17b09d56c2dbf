package handler

import (
	"net/http"
	"strconv"

	"otomar/internal/dto"
	"otomar/internal/middleware"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func productIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return uint(id), nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	cart, err := h.cartService.Get(ctx, middleware.CartOwnerFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddCartItemRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}

	cart, err := h.cartService.AddItem(ctx, middleware.CartOwnerFrom(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := productIDParam(c)
	if err != nil {
		return err
	}

	var req dto.UpdateCartItemRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}

	cart, err := h.cartService.UpdateItem(ctx, middleware.CartOwnerFrom(c), productID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	productID, err := productIDParam(c)
	if err != nil {
		return err
	}

	cart, err := h.cartService.RemoveItem(ctx, middleware.CartOwnerFrom(c), productID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Clear(c echo.Context) error {
	if err := h.cartService.Clear(c.Request().Context(), middleware.CartOwnerFrom(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
