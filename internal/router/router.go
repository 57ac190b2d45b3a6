// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/leoli101/flight-reservation/internal/handler"
)

// RegisterRoutes registers routes that do not participate in the session
// layer on the provided Echo instance.  Currently it exposes only a
// health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the reservation API under /v1.  Every route here
// runs behind the session middleware installed in main, so handlers can
// rely on a session object being present.  The optional rate limiter is
// applied to the public search endpoint only.
func RegisterAPI(e *echo.Echo, a *handler.AuthHandler, s *handler.SearchHandler, r *handler.ReservationHandler, searchLimiter echo.MiddlewareFunc) {
	auth := e.Group("/v1/auth")
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)

	if searchLimiter != nil {
		e.GET("/v1/flights/search", s.Flights, searchLimiter)
	} else {
		e.GET("/v1/flights/search", s.Flights)
	}

	res := e.Group("/v1/reservations")
	res.POST("", r.Book)
	res.GET("", r.List)
	res.POST("/:id/pay", r.Pay)
	res.DELETE("/:id", r.Cancel)
}
