package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking-api/internal/handler"
	"github.com/iliyamo/slot-booking-api/internal/metrics"
	"github.com/iliyamo/slot-booking-api/internal/middleware"
	"github.com/iliyamo/slot-booking-api/internal/model"
)

// RegisterRoutes registers routes that do not require authentication: the
// health check, the endpoint index and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1", handler.Index)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers the account endpoints.  Everything under /v1/auth
// passes through the rate limiter; logout and /v1/me also need a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.JWTAuth(jwtSecret))

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterSlots registers the public slot listing, cached when cache is
// non-nil, and the admin-only slot generator.
func RegisterSlots(e *echo.Echo, s *handler.SlotHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	if cache != nil {
		e.GET("/v1/slots", s.ListAvailable, cache)
	} else {
		e.GET("/v1/slots", s.ListAvailable)
	}

	admin := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("/slots", s.Generate)
}

// RegisterAppointments registers the booking endpoints.  Any authenticated
// user may book; ownership is checked by the coordinator on cancel.
func RegisterAppointments(e *echo.Echo, h *handler.AppointmentHandler, jwtSecret string) {
	g := e.Group(
		"/v1/appointments",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.GET("", h.List)
	g.POST("", h.Book)
	g.DELETE("/:id", h.Cancel)
}
