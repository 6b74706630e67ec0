package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	CookieName = "snapgram_session"
	idKey      = "sid"

	DefaultMaxAge = 7 * 24 * time.Hour
)

// ErrNoSession means the request carries no live session.
var ErrNoSession = errors.New("session: no session")

// Manager ties the signed session cookie to server-side session data. The
// cookie only ever carries the session id.
type Manager struct {
	cookies sessions.Store
	store   Store
	maxAge  time.Duration
}

// NewManager creates a session manager. secure marks the cookie Secure and
// should be set when served over HTTPS.
func NewManager(secret string, store Store, secure bool) *Manager {
	cookies := sessions.NewCookieStore([]byte(secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(DefaultMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		cookies: cookies,
		store:   store,
		maxAge:  DefaultMaxAge,
	}
}

// cookie returns the request's cookie session. An unreadable cookie, e.g.
// signed with an old secret, yields a fresh empty session.
func (m *Manager) cookie(c echo.Context) *sessions.Session {
	sess, err := m.cookies.Get(c.Request(), CookieName)
	if err != nil {
		slog.Debug("discarding unreadable session cookie", "error", err)
	}
	return sess
}

// Create stores data under a fresh session id and sets the cookie. Any session
// the request already had is replaced.
func (m *Manager) Create(c echo.Context, data *Data) error {
	ctx := c.Request().Context()
	sess := m.cookie(c)

	if old, ok := sess.Values[idKey].(string); ok && old != "" {
		if err := m.store.Delete(ctx, old); err != nil {
			slog.Warn("failed to delete replaced session", "error", err)
		}
	}

	id := uuid.NewString()
	if err := m.store.Set(ctx, id, data, m.maxAge); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	sess.Values[idKey] = id
	sess.Options.MaxAge = int(m.maxAge.Seconds())
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get returns the session data for the request, or ErrNoSession.
func (m *Manager) Get(c echo.Context) (*Data, error) {
	sess := m.cookie(c)

	id, ok := sess.Values[idKey].(string)
	if !ok || id == "" {
		return nil, ErrNoSession
	}

	data, err := m.store.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return data, nil
}

// Destroy deletes the server-side data and expires the cookie. Requests
// without a session are left untouched.
func (m *Manager) Destroy(c echo.Context) error {
	sess := m.cookie(c)

	id, ok := sess.Values[idKey].(string)
	if !ok || id == "" {
		return nil
	}

	if err := m.store.Delete(c.Request().Context(), id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	sess.Options.MaxAge = -1
	delete(sess.Values, idKey)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
