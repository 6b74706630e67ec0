package service

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/auth"
	"github.com/loganlanou/snapgram/internal/middleware"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/internal/provider/local"
	"github.com/loganlanou/snapgram/internal/session"
	"github.com/loganlanou/snapgram/views"
	"github.com/loganlanou/snapgram/views/layout"
)

// Recommender is the fire-and-forget trigger of the recommendation service.
type Recommender interface {
	Ping(ctx context.Context) bool
}

// objectOpener is implemented by backends that serve their own public object
// URLs.
type objectOpener interface {
	OpenObject(ctx context.Context, bucket, path string) (*local.Object, error)
}

type Service struct {
	provider    provider.Client
	sessions    *session.Manager
	recommender Recommender
	config      *Config
}

func New(p provider.Client, sessions *session.Manager, recommender Recommender, config *Config) *Service {
	return &Service{
		provider:    p,
		sessions:    sessions,
		recommender: recommender,
		config:      config,
	}
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	// Static files - no session middleware
	e.Static("/public", "public")
	e.Static("/uploads", s.config.Upload.Dir)
	e.GET("/health", s.handleHealth)

	if opener, ok := s.provider.(objectOpener); ok {
		e.GET("/storage/:bucket/*", s.handleStorageObject(opener))
	}

	// All other routes get the session loaded
	app := e.Group("")
	app.Use(middleware.LoadSession(s.sessions))

	// Auth pages (public)
	app.GET("/", s.handleLoginPage)
	app.GET("/login", s.handleLoginPage)
	app.POST("/login", s.handleLogin)
	app.GET("/signup", s.handleSignupPage)
	app.POST("/signup", s.handleSignup)
	app.GET("/logout", s.handleLogout)

	// Everything else requires a session
	protected := app.Group("", middleware.RequireSession())
	protected.GET("/home", s.handleHome)
	protected.GET("/profile/:username", s.handleProfile)
	protected.GET("/create-post", s.handleCreatePostPage)
	protected.POST("/create-post", s.handleCreatePost)
	protected.GET("/edit-profile", s.handleEditProfilePage)
	protected.POST("/edit-profile", s.handleEditProfile)
}

func (s *Service) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"environment": s.config.Environment,
		"provider":    s.config.Provider,
	})
}

// base builds the shared page model for the current request.
func (s *Service) base(c echo.Context) views.Base {
	ac := auth.GetAuthContext(c)
	meta := layout.NewPageMeta(s.config.BaseURL, c.Request().URL.Path)
	if ac.IsAuthenticated {
		meta = meta.Private()
	}
	return views.Base{
		Meta:   meta,
		Viewer: ac.Username,
	}
}

// Render renders a templ component and writes it to the response
func Render(c echo.Context, component templ.Component) error {
	return RenderStatus(c, http.StatusOK, component)
}

// RenderStatus renders into a buffer first so a failing template never leaves
// a half written page behind.
func RenderStatus(c echo.Context, status int, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}

type formValidator struct {
	validate *validator.Validate
}

// NewValidator returns the echo.Validator used for form structs.
func NewValidator() echo.Validator {
	return &formValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *formValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// HTTPErrorHandler writes plain text errors. Unexpected errors are logged and
// never leak their message.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	} else {
		slog.Error("unhandled error",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.String(code, msg)
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}
