package handler

import (
	"net/http"

	"otomar/internal/client"
	"otomar/internal/dto"
	"otomar/internal/middleware"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
	recaptcha   client.RecaptchaVerifier
}

func NewUserHandler(userService service.UserService, recaptcha client.RecaptchaVerifier) *UserHandler {
	return &UserHandler{
		userService: userService,
		recaptcha:   recaptcha,
	}
}

func (h *UserHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterRequest
	if err := bind(c, h.recaptcha, &req); err != nil {
		return err
	}

	resp, err := h.userService.Register(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := bind(c, h.recaptcha, &req); err != nil {
		return err
	}

	resp, err := h.userService.Login(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RefreshTokenRequest
	if err := bind(c, h.recaptcha, &req); err != nil {
		return err
	}

	resp, err := h.userService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.userService.Logout(ctx, middleware.UserID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.userService.Me(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}
