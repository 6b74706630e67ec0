package auth

import (
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/session"
)

const (
	// IsAuthenticatedKey is set by the session middleware on every request
	IsAuthenticatedKey = "is_authenticated"
	// SessionKey holds the *session.Data of a logged in request
	SessionKey = "session"
)

// GetSession retrieves the session data from context
func GetSession(c echo.Context) (*session.Data, bool) {
	data, ok := c.Get(SessionKey).(*session.Data)
	return data, ok && data != nil
}

// SetSession marks the request as authenticated with data
func SetSession(c echo.Context, data *session.Data) {
	c.Set(SessionKey, data)
	c.Set(IsAuthenticatedKey, data != nil)
}

// IsAuthenticated checks if the current request is authenticated
func IsAuthenticated(c echo.Context) bool {
	isAuth, _ := c.Get(IsAuthenticatedKey).(bool)
	return isAuth
}

// GetUserID gets the logged in user's ID
func GetUserID(c echo.Context) (string, bool) {
	if data, ok := GetSession(c); ok && data.UserID != "" {
		return data.UserID, true
	}
	return "", false
}

// GetUsername gets the logged in user's username
func GetUsername(c echo.Context) string {
	if data, ok := GetSession(c); ok {
		return data.Username
	}
	return ""
}
