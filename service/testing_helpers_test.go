package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/internal/provider/local"
	"github.com/loganlanou/snapgram/internal/session"
	"github.com/loganlanou/snapgram/storage"
	"gocloud.dev/blob/memblob"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret123"

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testEnv struct {
	e           *echo.Echo
	svc         *Service
	provider    *countingProvider
	store       session.Store
	recommender *stubRecommender
}

type stubRecommender struct {
	ok    bool
	calls atomic.Int32
}

func (r *stubRecommender) Ping(context.Context) bool {
	r.calls.Add(1)
	return r.ok
}

// countingProvider wraps the local backend, counting calls and optionally
// failing them by method name.
type countingProvider struct {
	*local.Provider

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func (p *countingProvider) hit(method string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[method]++
	return p.fail[method]
}

func (p *countingProvider) failOn(method string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[method] = err
}

func (p *countingProvider) count(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

func (p *countingProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*provider.User, error) {
	if err := p.hit("SignUp"); err != nil {
		return nil, err
	}
	return p.Provider.SignUp(ctx, email, password, metadata)
}

func (p *countingProvider) SignInWithPassword(ctx context.Context, email, password string) (*provider.AuthSession, error) {
	if err := p.hit("SignInWithPassword"); err != nil {
		return nil, err
	}
	return p.Provider.SignInWithPassword(ctx, email, password)
}

func (p *countingProvider) ProfileByID(ctx context.Context, id string) (*provider.Profile, error) {
	if err := p.hit("ProfileByID"); err != nil {
		return nil, err
	}
	return p.Provider.ProfileByID(ctx, id)
}

func (p *countingProvider) ProfileByUsername(ctx context.Context, username string) (*provider.ProfileWithPosts, error) {
	if err := p.hit("ProfileByUsername"); err != nil {
		return nil, err
	}
	return p.Provider.ProfileByUsername(ctx, username)
}

func (p *countingProvider) ListFeed(ctx context.Context) ([]provider.FeedPost, error) {
	if err := p.hit("ListFeed"); err != nil {
		return nil, err
	}
	return p.Provider.ListFeed(ctx)
}

func (p *countingProvider) InsertPost(ctx context.Context, accessToken string, post provider.NewPost) error {
	if err := p.hit("InsertPost"); err != nil {
		return err
	}
	return p.Provider.InsertPost(ctx, accessToken, post)
}

func (p *countingProvider) UpdateProfile(ctx context.Context, accessToken, id string, update provider.ProfileUpdate) error {
	if err := p.hit("UpdateProfile"); err != nil {
		return err
	}
	return p.Provider.UpdateProfile(ctx, accessToken, id, update)
}

func (p *countingProvider) Upload(ctx context.Context, accessToken string, obj provider.Object) error {
	if err := p.hit("Upload"); err != nil {
		return err
	}
	return p.Provider.Upload(ctx, accessToken, obj)
}

// failDeleteStore is a memory store whose Delete always fails
type failDeleteStore struct {
	*session.MemoryStore
}

func (failDeleteStore) Delete(context.Context, string) error {
	return context.DeadlineExceeded
}

// failSetStore is a memory store that cannot save sessions
type failSetStore struct {
	*session.MemoryStore
}

func (failSetStore) Set(context.Context, string, *session.Data, time.Duration) error {
	return context.DeadlineExceeded
}

func testConfig() *Config {
	config := &Config{
		Environment: "test",
		Port:        "8080",
		BaseURL:     "http://localhost:8080",
		Provider:    ProviderLocal,
	}
	config.Session.Secret = "test-session-secret"
	config.Session.Store = SessionStoreMemory
	config.Recommender.URL = "http://127.0.0.1:1"
	config.Recommender.Timeout = 100 * time.Millisecond
	config.Upload.MaxSize = 1 << 20
	config.Upload.Dir = "./uploads"
	return config
}

// setupTestEcho creates an Echo instance with routes registered, backed by the
// local provider on an in-memory database.
func setupTestEcho(t *testing.T) *testEnv {
	t.Helper()
	return setupTestEchoWithStore(t, session.NewMemoryStore())
}

func setupTestEchoWithStore(t *testing.T, store session.Store) *testEnv {
	t.Helper()

	database, _, cleanup, err := storage.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(cleanup)

	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { bucket.Close() })

	config := testConfig()
	lp, err := local.New(storage.NewFromDB(database), bucket, local.Options{
		BaseURL:    config.BaseURL,
		JWTSecret:  "test-jwt-secret",
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("failed to create local provider: %v", err)
	}

	p := &countingProvider{
		Provider: lp,
		calls:    make(map[string]int),
		fail:     make(map[string]error),
	}
	rec := &stubRecommender{ok: true}
	svc := New(p, session.NewManager(config.Session.Secret, store, false), rec, config)

	e := echo.New()
	svc.RegisterRoutes(e)

	return &testEnv{
		e:           e,
		svc:         svc,
		provider:    p,
		store:       store,
		recommender: rec,
	}
}

// signUp registers a user directly with the provider and returns its id
func (env *testEnv) signUp(t *testing.T, email, username string) string {
	t.Helper()

	user, err := env.provider.Provider.SignUp(context.Background(), email, testPassword, map[string]any{"username": username})
	if err != nil {
		t.Fatalf("failed to sign up %s: %v", email, err)
	}
	return user.ID
}

// accessToken signs in directly with the provider
func (env *testEnv) accessToken(t *testing.T, email string) string {
	t.Helper()

	sess, err := env.provider.Provider.SignInWithPassword(context.Background(), email, testPassword)
	if err != nil {
		t.Fatalf("failed to sign in %s: %v", email, err)
	}
	return sess.AccessToken
}

// login goes through POST /login and returns the session cookies
func (env *testEnv) login(t *testing.T, email string) []*http.Cookie {
	t.Helper()

	rec := env.do(formRequest(http.MethodPost, "/login", url.Values{
		"email":    {email},
		"password": {testPassword},
	}), nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("login %s: want 302, got %d: %s", email, rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

// sessionCookies stores data as a session without going through login
func (env *testEnv) sessionCookies(t *testing.T, data *session.Data) []*http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	c := env.e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := env.svc.sessions.Create(c, data); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return rec.Result().Cookies()
}

func (env *testEnv) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) get(path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	return env.do(httptest.NewRequest(http.MethodGet, path, nil), cookies)
}

func formRequest(method, path string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// multipartRequest builds a multipart POST. An empty fileField sends no file.
func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName && ck.MaxAge >= 0 {
			return true
		}
	}
	return false
}
