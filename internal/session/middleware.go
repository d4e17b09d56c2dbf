package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"otomar/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Middleware loads the session named by the cookie, or starts a new one, and
// puts it in the request context. Changes are saved before the response
// headers go out; a new session gets its cookie only once something was saved.
func Middleware(store Store, cfg config.Session, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			s, fresh := load(ctx, store, cfg, req, log)
			s.store = store
			c.SetRequest(req.WithContext(WithSession(ctx, s)))

			cookieSent := false
			persist := func() {
				// the request context may already be cancelled by the time headers are written
				saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
				defer cancel()

				if err := s.Flush(saveCtx); err != nil {
					log.Error().Err(err).Msg("save session")
				}
				if fresh && !cookieSent && s.wasPersisted() {
					cookieSent = true
					c.SetCookie(&http.Cookie{
						Name:     cfg.CookieName,
						Value:    s.ID(),
						Path:     "/",
						MaxAge:   int(cfg.TTL.Seconds()),
						HttpOnly: true,
						Secure:   cfg.CookieSecure,
						SameSite: http.SameSiteLaxMode,
					})
				}
			}
			c.Response().Before(persist)

			err := next(c)
			if !c.Response().Committed {
				persist()
			}
			return err
		}
	}
}

func load(ctx context.Context, store Store, cfg config.Session, req *http.Request, log zerolog.Logger) (*Session, bool) {
	cookie, err := req.Cookie(cfg.CookieName)
	if err == nil && cookie.Value != "" {
		data, err := store.Load(ctx, cookie.Value)
		switch {
		case err == nil:
			return New(cookie.Value, data), false
		case !errors.Is(err, ErrNotFound):
			log.Warn().Err(err).Msg("load session, starting a new one")
		}
	}
	return New(newSessionID(), Data{}), true
}

func newSessionID() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
