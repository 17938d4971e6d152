package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems.  It returns a plain text "ok" with a 200 status.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Index lists the API's entry points.
func Index(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Appointment Booking API",
		"endpoints": echo.Map{
			"auth":         "/v1/auth",
			"slots":        "/v1/slots",
			"appointments": "/v1/appointments",
			"metrics":      "/metrics",
		},
	})
}
