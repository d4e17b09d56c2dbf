package handler

import (
	"net/http"

	"otomar/internal/dto"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
)

type HealthHandler struct {
	healthService service.HealthService
}

func NewHealthHandler(healthService service.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.StatusResponse{Status: "ok"})
}

func (h *HealthHandler) Ready(c echo.Context) error {
	resp, ok := h.healthService.Ready(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
