package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/watch-party/internal/handler"
	"github.com/iliyamo/watch-party/internal/middleware"
)

// RegisterRoutes registers the unauthenticated service routes: a status
// message at "/" and the load balancer health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Status)
	e.GET("/healthz", handler.Health)
}

// RegisterWatchParty mounts the watch party API under
// /api/tools/watchparty.  Only /public is reachable without a token.
// extra middleware (rate limiting) applies to the whole group.
//
// Fixed paths are registered before the /:id routes so that, for example,
// /user is never read as a watch party id.
func RegisterWatchParty(e *echo.Echo, h *handler.WatchPartyHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/api/tools/watchparty", extra...)
	auth := middleware.JWTAuth(jwtSecret)

	g.GET("/search", h.SearchMovies, auth)
	g.GET("/user", h.GetUserSessions, auth)
	g.GET("/public", h.GetPublicSessions)
	g.GET("/notifications", h.GetNotifications, auth)

	g.POST("/create", h.CreateSession, auth)
	g.POST("/join/:id", h.JoinSession, auth)
	g.GET("/:id", h.GetSession, auth)
	g.POST("/:id/message", h.SendMessage, auth)
	g.GET("/:id/messages", h.GetMessages, auth)
	g.GET("/:id/users", h.GetUsers, auth)
	g.POST("/:id/users", h.AddPublicKey, auth)
}

// RegisterMarathon mounts the marathon bucket API under
// /api/tools/marathon.  Every route requires a valid token.
func RegisterMarathon(e *echo.Echo, h *handler.MarathonHandler, jwtSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/api/tools/marathon", extra...)
	g.Use(middleware.JWTAuth(jwtSecret))

	g.GET("/search", h.Search)
	g.GET("/bucket", h.GetBucket)
	g.POST("/bucket", h.AddMovie)
	g.GET("/bucket/runtime", h.TotalRuntime)
	g.DELETE("/bucket/:movieId", h.RemoveMovie)
}
