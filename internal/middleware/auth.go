package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/auth"
)

// RequireSession redirects requests without a session to the login page.
// It must run after LoadSession.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !auth.IsAuthenticated(c) {
				return c.Redirect(http.StatusFound, "/login")
			}
			return next(c)
		}
	}
}
