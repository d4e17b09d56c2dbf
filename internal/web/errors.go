package web

import (
	"errors"
	"net/http"

	"otomar/internal/apiclient"
	"otomar/internal/handler"
	"otomar/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// newErrorHandler relays API errors to the browser as they came. A 401 that
// survived the refresh attempt ends the sign-in.
func newErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	fallback := handler.NewErrorHandler(log)

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *apiclient.APIError
		if !errors.As(err, &apiErr) {
			fallback(err, c)
			return
		}

		if apiErr.StatusCode == http.StatusUnauthorized {
			if s := session.FromContext(c.Request().Context()); s != nil && s.Credential() != nil {
				s.ClearCredential()
			}
		}
		if apiErr.StatusCode >= http.StatusInternalServerError {
			log.Warn().Err(err).Str("path", c.Path()).Msg("api failed")
		}

		if err := c.JSON(apiErr.StatusCode, apiErr.Response); err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}
