package middleware

// identity.go exposes the authenticated user to handlers and to the other
// middleware.  JWTAuth stores the token subject under userIDKey.

import "github.com/labstack/echo/v4"

const userIDKey = "user_id"

// UserID returns the authenticated user id, or "" on public routes.
func UserID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok {
		return s
	}
	return ""
}

// SetUserID stores id as the authenticated user.  Tests use it to bypass
// token parsing.
func SetUserID(c echo.Context, id string) {
	c.Set(userIDKey, id)
}

// rateLimitIdentity is the user part of a rate limit key.
func rateLimitIdentity(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
