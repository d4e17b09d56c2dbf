package handler

import (
	"net/http"

	"otomar/internal/client"
	"otomar/internal/dto"

	"github.com/labstack/echo/v4"
)

// bind decodes, validates and, for dto.RecaptchaProtected requests, verifies
// the bot check token.
func bind(c echo.Context, recaptcha client.RecaptchaVerifier, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if protected, ok := req.(dto.RecaptchaProtected); ok && recaptcha != nil {
		if err := recaptcha.Verify(c.Request().Context(), protected.GetRecaptchaToken(), c.RealIP()); err != nil {
			return err
		}
	}
	return nil
}
