package handler

import (
	"net/http"

	"otomar/internal/dto"
	"otomar/internal/middleware"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// viewer builds the order access identity. Guests prove ownership with ?email=.
func viewer(c echo.Context) service.Viewer {
	return service.Viewer{
		UserID:  middleware.UserID(c),
		IsAdmin: middleware.IsAdmin(c),
		Email:   c.QueryParam("email"),
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}

	cmd := &service.CreateOrderCommand{
		CartOwner: middleware.CartOwnerFrom(c),
		Request:   &req,
	}
	if userID := middleware.UserID(c); userID != "" {
		cmd.UserID = &userID
	}

	order, err := h.orderService.Create(ctx, cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetForViewer(ctx, c.Param("code"), viewer(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListForUser(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateNote(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderNoteRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateNote(ctx, c.Param("code"), req.Note)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
