package middleware

import (
	"errors"
	"net/http"
	"strings"

	"otomar/internal/model"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
)

const contextKeyClaims = "auth_claims"

var errMissingToken = errors.New("missing bearer token")

// OptionalAuth accepts anonymous requests. A bearer token that is present but
// invalid or expired is rejected with 401 so clients know to refresh.
func OptionalAuth(tokens *service.TokenIssuer) echo.MiddlewareFunc {
	return auth(tokens, false)
}

func RequireAuth(tokens *service.TokenIssuer) echo.MiddlewareFunc {
	return auth(tokens, true)
}

func auth(tokens *service.TokenIssuer, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request())
			if errors.Is(err, errMissingToken) && !required {
				return next(c)
			}
			if err != nil {
				return unauthorized(c, err)
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				return unauthorized(c, err)
			}

			c.Set(contextKeyClaims, claims)
			return next(c)
		}
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAdmin(c) {
				return service.ErrForbidden
			}
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}

func unauthorized(c echo.Context, err error) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="otomar"`)
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(err)
}

func Claims(c echo.Context) *service.Claims {
	claims, _ := c.Get(contextKeyClaims).(*service.Claims)
	return claims
}

// UserID is empty for anonymous requests.
func UserID(c echo.Context) string {
	if claims := Claims(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func IsAdmin(c echo.Context) bool {
	claims := Claims(c)
	return claims != nil && claims.Role == model.RoleAdmin
}
