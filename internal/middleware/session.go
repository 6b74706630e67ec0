package middleware

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/auth"
	"github.com/loganlanou/snapgram/internal/session"
)

// LoadSession is middleware that loads the user session into Echo context.
// Requests without a live session continue unauthenticated.
func LoadSession(sessionMgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			data, err := sessionMgr.Get(c)
			switch {
			case err == nil:
				auth.SetSession(c, data)
			case errors.Is(err, session.ErrNoSession):
				auth.SetSession(c, nil)
			default:
				slog.Warn("failed to load session", "path", c.Request().URL.Path, "error", err)
				auth.SetSession(c, nil)
			}
			return next(c)
		}
	}
}
