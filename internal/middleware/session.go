package middleware // reusable HTTP middleware for the reservation API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leoli101/flight-reservation/internal/session"
	"github.com/leoli101/flight-reservation/internal/utils"
)

// sessionKey is the echo context key under which the resolved session is
// stored for handlers.
const sessionKey = "session"

// ResolveSession returns middleware that binds each request to a logical
// connection. A valid Bearer token resolves to its existing session;
// otherwise a fresh session is created and its signed token handed back in
// the X-Session-Token response header so the client can keep using the same
// session for later searches, bookings and payments. A token whose session
// no longer exists (server restart) is rejected so the client knows its
// itinerary ids are gone.
func ResolveSession(store *session.Store, secret string, ttlMin int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				raw := strings.TrimPrefix(auth, "Bearer ")
				sid, err := utils.ParseSessionToken(secret, raw)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session token"})
				}
				sess := store.Get(sid)
				if sess == nil {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session expired"})
				}
				c.Set(sessionKey, sess)
				return next(c)
			}

			sid, err := utils.NewSessionID()
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create session"})
			}
			tok, err := utils.NewSessionToken(secret, sid, ttlMin)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create session"})
			}
			c.Response().Header().Set("X-Session-Token", tok.Token)
			c.Set(sessionKey, store.Create(sid))
			return next(c)
		}
	}
}

// CurrentSession extracts the session placed on the context by
// ResolveSession. It returns nil when the middleware did not run.
func CurrentSession(c echo.Context) *session.Session {
	if v := c.Get(sessionKey); v != nil {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}
