package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(e *echo.Echo, cookies []*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestManager_CreateGetDestroy(t *testing.T) {
	e := echo.New()
	store := NewMemoryStore()
	m := NewManager("test-secret", store, false)

	c, rec := newContext(e, nil)
	data := &Data{UserID: "u1", Email: "a@x.com", AccessToken: "tok", Username: "alice"}
	require.NoError(t, m.Create(c, data))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotContains(t, cookies[0].Value, "tok", "cookie carries only the id")
	assert.Equal(t, 1, store.Len())

	c, _ = newContext(e, cookies)
	got, err := m.Get(c)
	require.NoError(t, err)
	assert.Equal(t, *data, *got)

	c, rec = newContext(e, cookies)
	require.NoError(t, m.Destroy(c))
	assert.Equal(t, 0, store.Len())
	expired := rec.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Less(t, expired[0].MaxAge, 0)

	// the old cookie no longer resolves
	c, _ = newContext(e, cookies)
	_, err = m.Get(c)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_CreateReplacesPreviousSession(t *testing.T) {
	e := echo.New()
	store := NewMemoryStore()
	m := NewManager("test-secret", store, false)

	c, rec := newContext(e, nil)
	require.NoError(t, m.Create(c, &Data{UserID: "u1"}))
	first := rec.Result().Cookies()

	c, _ = newContext(e, first)
	require.NoError(t, m.Create(c, &Data{UserID: "u2"}))
	assert.Equal(t, 1, store.Len())
}

func TestManager_GetWithoutSession(t *testing.T) {
	e := echo.New()
	m := NewManager("test-secret", NewMemoryStore(), false)

	c, _ := newContext(e, nil)
	_, err := m.Get(c)
	assert.ErrorIs(t, err, ErrNoSession)

	c, _ = newContext(e, []*http.Cookie{{Name: CookieName, Value: "forged"}})
	_, err = m.Get(c)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_CookieFromOtherSecretRejected(t *testing.T) {
	e := echo.New()
	store := NewMemoryStore()

	c, rec := newContext(e, nil)
	require.NoError(t, NewManager("secret-a", store, false).Create(c, &Data{UserID: "u1"}))

	c, _ = newContext(e, rec.Result().Cookies())
	_, err := NewManager("secret-b", store, false).Get(c)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_DestroyWithoutSessionIsNoop(t *testing.T) {
	e := echo.New()
	m := NewManager("test-secret", NewMemoryStore(), false)

	c, rec := newContext(e, nil)
	require.NoError(t, m.Destroy(c))
	assert.Empty(t, rec.Result().Cookies())
}

type failingStore struct{ *MemoryStore }

func (failingStore) Delete(context.Context, string) error { return errors.New("store down") }

func TestManager_DestroyPropagatesStoreFailure(t *testing.T) {
	e := echo.New()
	store := &failingStore{MemoryStore: NewMemoryStore()}
	m := NewManager("test-secret", store, false)

	c, rec := newContext(e, nil)
	require.NoError(t, m.Create(c, &Data{UserID: "u1"}))

	c, _ = newContext(e, rec.Result().Cookies())
	assert.Error(t, m.Destroy(c))
}

func TestNewManager_SecureCookie(t *testing.T) {
	e := echo.New()
	m := NewManager("test-secret", NewMemoryStore(), true)

	c, rec := newContext(e, nil)
	require.NoError(t, m.Create(c, &Data{UserID: "u1"}))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, int(DefaultMaxAge/time.Second), cookies[0].MaxAge)
}
