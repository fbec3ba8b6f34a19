package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Status answers GET / so a browser or uptime probe can see the service.
func Status(c echo.Context) error {
	return c.String(http.StatusOK, "Watch Party service is running")
}

// Health is a simple health-check endpoint used by load balancers.  It
// returns a plain text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
