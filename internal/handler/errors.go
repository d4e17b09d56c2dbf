package handler

import (
	"errors"
	"net/http"

	"otomar/internal/client"
	"otomar/internal/dto"
	"otomar/internal/middleware"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	details string
}

var errorMappings = []errorMapping{
	{service.ErrProductNotFound, http.StatusNotFound, "product_not_found", ""},
	{service.ErrOrderNotFound, http.StatusNotFound, "order_not_found", ""},
	{service.ErrPaymentNotFound, http.StatusNotFound, "payment_not_found", ""},
	{service.ErrUserNotFound, http.StatusNotFound, "user_not_found", ""},
	{service.ErrProductUnavailable, http.StatusUnprocessableEntity, "product_unavailable", ""},
	{service.ErrInvalidPrice, http.StatusBadRequest, "invalid_price", ""},
	{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity", ""},
	{service.ErrCartOwnerMissing, http.StatusBadRequest, "cart_owner_missing", "sign in or send " + middleware.CartSessionHeader},
	{service.ErrEmptyOrder, http.StatusBadRequest, "empty_order", ""},
	{service.ErrInvalidCallback, http.StatusBadRequest, "invalid_callback", ""},
	{service.ErrTooManyFiles, http.StatusBadRequest, "too_many_files", ""},
	{service.ErrFileTypeNotAllowed, http.StatusBadRequest, "file_type_not_allowed", "allowed: jpg, jpeg, png, pdf"},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file_too_large", "max 5 MiB per file"},
	{service.ErrOrderNotPayable, http.StatusConflict, "order_not_payable", ""},
	{service.ErrEmailTaken, http.StatusConflict, "email_taken", ""},
	{service.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable", "retry"},
	{service.ErrGatewayRejected, http.StatusBadGateway, "gateway_rejected", ""},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", ""},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid_refresh_token", ""},
	{service.ErrInvalidAccessToken, http.StatusUnauthorized, "invalid_access_token", ""},
	{service.ErrForbidden, http.StatusForbidden, "forbidden", ""},
	{client.ErrRecaptchaFailed, http.StatusBadRequest, "recaptcha_failed", ""},
}

// NewErrorHandler renders every error as dto.ErrorResponse.
func NewErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := ErrorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}

func ErrorResponse(err error) (int, *dto.ErrorResponse) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, &dto.ErrorResponse{
			Error:  "validation failed",
			Code:   "validation_failed",
			Fields: validationErr.Fields,
		}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, &dto.ErrorResponse{
				Error:   m.err.Error(),
				Code:    m.code,
				Details: m.details,
			}
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := http.StatusText(httpErr.Code)
		if s, ok := httpErr.Message.(string); ok && s != "" {
			msg = s
		}
		return httpErr.Code, &dto.ErrorResponse{Error: msg}
	}

	return http.StatusInternalServerError, &dto.ErrorResponse{
		Error: "internal server error",
		Code:  "internal",
	}
}
