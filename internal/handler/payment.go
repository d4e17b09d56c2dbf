package handler

import (
	"io"
	"net/http"

	"otomar/internal/client"
	"otomar/internal/dto"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const maxCallbackBody = 64 << 10

type PaymentHandler struct {
	paymentService service.PaymentService
	log            zerolog.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log,
	}
}

func (h *PaymentHandler) Initialize(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.InitializePaymentRequest
	if err := bind(c, nil, &req); err != nil {
		return err
	}

	resp, err := h.paymentService.Initialize(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// Callback receives the CC5Response XML the bank posts after 3-D Secure.
func (h *PaymentHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read callback body").SetInternal(err)
	}

	cc5, err := client.ParseCC5Response(body)
	if err != nil {
		h.log.Warn().Err(err).Int("bytes", len(body)).Msg("unparseable bank callback")
		return service.ErrInvalidCallback
	}

	resp, err := h.paymentService.HandleCallback(ctx, cc5)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) GetPayment(c echo.Context) error {
	ctx := c.Request().Context()

	payment, err := h.paymentService.GetByOrderCode(ctx, c.Param("orderCode"), viewer(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}
