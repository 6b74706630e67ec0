package service

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/auth"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/internal/session"
	"github.com/loganlanou/snapgram/views"
)

type signupForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Email    string `form:"email" validate:"required"`
}

type loginForm struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// bindForm binds and validates a form, reporting only whether it is usable.
func bindForm(c echo.Context, form any) bool {
	if err := c.Bind(form); err != nil {
		return false
	}
	return c.Validate(form) == nil
}

func (s *Service) handleLoginPage(c echo.Context) error {
	base := s.base(c)
	base.Meta = base.Meta.WithTitle("Log in")
	return Render(c, views.Login(views.AuthPage{Base: base}))
}

func (s *Service) handleSignupPage(c echo.Context) error {
	base := s.base(c)
	base.Meta = base.Meta.WithTitle("Sign up")
	return Render(c, views.Signup(views.AuthPage{Base: base}))
}

// handleSignup registers the account with the provider. The provider creates
// the profile row itself; nothing is written here.
func (s *Service) handleSignup(c echo.Context) error {
	var form signupForm
	if !bindForm(c, &form) {
		return c.String(http.StatusBadRequest, "Email, Username and Password are required")
	}

	user, err := s.provider.SignUp(c.Request().Context(), form.Email, form.Password, map[string]any{
		"username": form.Username,
	})
	if err != nil {
		slog.Error("signup failed", "email", form.Email, "error", err)
		return RenderStatus(c, http.StatusBadRequest, views.Alert(views.AlertPage{
			Message:  "Signup failed: " + provider.Message(err),
			Redirect: "/signup",
		}))
	}

	slog.Info("user registered", "user_id", user.ID)
	return Render(c, views.Alert(views.AlertPage{
		Message:  "Signup successful! Please check your email to confirm.",
		Redirect: "/login",
	}))
}

// handleLogin signs in with the provider and resolves the username before any
// session is saved, so a failed lookup never leaves a usable session behind.
func (s *Service) handleLogin(c echo.Context) error {
	var form loginForm
	if !bindForm(c, &form) {
		return c.String(http.StatusBadRequest, "Email and Password are required")
	}

	ctx := c.Request().Context()
	slog.Debug("attempting login", "email", form.Email)

	authSession, err := s.provider.SignInWithPassword(ctx, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidCredentials) {
			slog.Warn("login rejected", "email", form.Email, "error", err)
		} else {
			slog.Error("login failed", "email", form.Email, "error", err)
		}
		return c.String(http.StatusUnauthorized, "Invalid email or password.")
	}

	data := &session.Data{
		UserID:      authSession.User.ID,
		Email:       authSession.User.Email,
		AccessToken: authSession.AccessToken,
	}

	profile, err := s.provider.ProfileByID(ctx, data.UserID)
	if err != nil {
		slog.Error("could not find profile for user", "user_id", data.UserID, "error", err)
		if destroyErr := s.sessions.Destroy(c); destroyErr != nil {
			slog.Error("failed to destroy session", "error", destroyErr)
		}
		return c.String(http.StatusInternalServerError, "Login failed: Could not find user profile.")
	}
	data.Username = profile.Username

	if err := s.sessions.Create(c, data); err != nil {
		slog.Error("failed to save session", "user_id", data.UserID, "error", err)
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}

	slog.Info("login successful", "user_id", data.UserID, "username", data.Username)
	return c.Redirect(http.StatusFound, "/profile/"+url.PathEscape(data.Username))
}

func (s *Service) handleLogout(c echo.Context) error {
	if err := s.sessions.Destroy(c); err != nil {
		slog.Error("error destroying session", "error", err)
		return c.String(http.StatusInternalServerError, "Could not log out.")
	}
	auth.SetSession(c, nil)
	return c.Redirect(http.StatusFound, "/login")
}
