package middleware

import (
	"net/http"
	"regexp"

	"otomar/internal/dto"

	"github.com/labstack/echo/v4"
)

const CartSessionHeader = dto.CartSessionHeader

const contextKeyCartOwner = "cart_owner"

var cartSessionPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// CartOwner resolves whose cart a request addresses. An authenticated user
// wins over the cart session header. It must run after OptionalAuth.
func CartOwner() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID := UserID(c); userID != "" {
				c.Set(contextKeyCartOwner, "user:"+userID)
				return next(c)
			}

			sessionID := c.Request().Header.Get(CartSessionHeader)
			if sessionID == "" {
				return next(c)
			}
			if !cartSessionPattern.MatchString(sessionID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+CartSessionHeader+" header")
			}

			c.Set(contextKeyCartOwner, "session:"+sessionID)
			return next(c)
		}
	}
}

// CartOwnerFrom is empty when neither a user nor a cart session is known.
func CartOwnerFrom(c echo.Context) string {
	owner, _ := c.Get(contextKeyCartOwner).(string)
	return owner
}
