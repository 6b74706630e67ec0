package auth

import "github.com/labstack/echo/v4"

// Context holds authentication data to be passed to templates
type Context struct {
	IsAuthenticated bool
	UserID          string
	Username        string
}

// GetAuthContext returns authentication context for templates
func GetAuthContext(c echo.Context) *Context {
	data, ok := GetSession(c)
	if !ok || !IsAuthenticated(c) {
		return &Context{}
	}

	return &Context{
		IsAuthenticated: true,
		UserID:          data.UserID,
		Username:        data.Username,
	}
}
