// Package supabase implements the provider contract against a hosted Supabase
// project: GoTrue for accounts, PostgREST for the profiles and posts tables and
// the Storage API for image buckets.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/pkg/errors"
)

const (
	defaultTimeout = 30 * time.Second

	// singleObject asks PostgREST for one JSON object instead of an array; zero
	// rows then come back as 406.
	singleObject = "application/vnd.pgrst.object+json"

	profileColumns = "id,username,display_name,bio,profile_image_url"
	postColumns    = "id,user_id,caption,image_url,created_at,stress_level"
)

type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

var _ provider.Client = (*Client)(nil)

func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type userJSON struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u userJSON) toUser() provider.User {
	return provider.User{ID: u.ID, Email: u.Email, Metadata: u.UserMetadata}
}

type profileJSON struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	DisplayName     *string `json:"display_name"`
	Bio             *string `json:"bio"`
	ProfileImageURL *string `json:"profile_image_url"`
}

func (p profileJSON) toProfile() provider.Profile {
	return provider.Profile{
		ID:              p.ID,
		Username:        p.Username,
		DisplayName:     deref(p.DisplayName),
		Bio:             deref(p.Bio),
		ProfileImageURL: deref(p.ProfileImageURL),
	}
}

type postJSON struct {
	ID          rowID        `json:"id"`
	UserID      string       `json:"user_id"`
	Caption     *string      `json:"caption"`
	ImageURL    *string      `json:"image_url"`
	CreatedAt   time.Time    `json:"created_at"`
	StressLevel *float64     `json:"stress_level"`
	Profiles    *profileJSON `json:"profiles,omitempty"`
}

func (p postJSON) toPost() provider.Post {
	return provider.Post{
		ID:          string(p.ID),
		UserID:      p.UserID,
		Caption:     deref(p.Caption),
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		StressLevel: p.StressLevel,
	}
}

// rowID accepts both bigint and uuid primary keys.
type rowID string

func (id *rowID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*id = rowID(s)
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*provider.User, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}

	// With email confirmation enabled the user comes back at the top level,
	// otherwise wrapped together with a session.
	var resp struct {
		userJSON
		User *userJSON `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "supabase signup")
	}

	u := resp.userJSON
	if resp.User != nil {
		u = *resp.User
	}
	user := u.toUser()
	return &user, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*provider.AuthSession, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp struct {
		AccessToken string   `json:"access_token"`
		User        userJSON `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, nil, &resp)
	if err != nil {
		var perr *provider.Error
		if errors.As(err, &perr) && (perr.Status == http.StatusBadRequest || perr.Status == http.StatusUnauthorized) {
			return nil, errors.Wrap(provider.ErrInvalidCredentials, perr.Message)
		}
		return nil, errors.Wrap(err, "supabase sign in")
	}

	return &provider.AuthSession{
		User:        resp.User.toUser(),
		AccessToken: resp.AccessToken,
	}, nil
}

func (c *Client) ProfileByID(ctx context.Context, id string) (*provider.Profile, error) {
	q := url.Values{}
	q.Set("select", profileColumns)
	q.Set("id", "eq."+id)

	var row profileJSON
	if err := c.do(ctx, http.MethodGet, "/rest/v1/profiles?"+q.Encode(), "", nil, singleHeader(), &row); err != nil {
		return nil, errors.Wrapf(err, "fetch profile %s", id)
	}
	profile := row.toProfile()
	return &profile, nil
}

func (c *Client) ProfileByUsername(ctx context.Context, username string) (*provider.ProfileWithPosts, error) {
	q := url.Values{}
	q.Set("select", profileColumns+",posts("+postColumns+")")
	q.Set("username", "eq."+username)
	q.Set("posts.order", "created_at.desc")

	var row struct {
		profileJSON
		Posts []postJSON `json:"posts"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/v1/profiles?"+q.Encode(), "", nil, singleHeader(), &row); err != nil {
		return nil, errors.Wrapf(err, "fetch profile %q", username)
	}

	out := &provider.ProfileWithPosts{
		Profile: row.toProfile(),
		Posts:   make([]provider.Post, 0, len(row.Posts)),
	}
	for _, p := range row.Posts {
		out.Posts = append(out.Posts, p.toPost())
	}
	return out, nil
}

func (c *Client) ListFeed(ctx context.Context) ([]provider.FeedPost, error) {
	q := url.Values{}
	q.Set("select", postColumns+",profiles(id,username,display_name,profile_image_url)")
	q.Set("order", "created_at.desc")

	var rows []postJSON
	if err := c.do(ctx, http.MethodGet, "/rest/v1/posts?"+q.Encode(), "", nil, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "fetch feed")
	}

	feed := make([]provider.FeedPost, 0, len(rows))
	for _, r := range rows {
		fp := provider.FeedPost{Post: r.toPost()}
		if r.Profiles != nil {
			fp.Author = r.Profiles.toProfile()
		}
		if fp.Author.ID == "" {
			fp.Author.ID = r.UserID
		}
		feed = append(feed, fp)
	}
	return feed, nil
}

func (c *Client) InsertPost(ctx context.Context, accessToken string, post provider.NewPost) error {
	if accessToken == "" {
		return provider.ErrUnauthorized
	}
	body := map[string]any{
		"user_id":   post.UserID,
		"caption":   post.Caption,
		"image_url": post.ImageURL,
	}
	h := http.Header{}
	h.Set("Prefer", "return=minimal")

	if err := c.do(ctx, http.MethodPost, "/rest/v1/posts", accessToken, body, h, nil); err != nil {
		return errors.Wrap(err, "insert post")
	}
	return nil
}

func (c *Client) UpdateProfile(ctx context.Context, accessToken, id string, update provider.ProfileUpdate) error {
	if accessToken == "" {
		return provider.ErrUnauthorized
	}
	body := map[string]any{
		"display_name": update.DisplayName,
		"bio":          update.Bio,
	}
	if update.ProfileImageURL != nil {
		body["profile_image_url"] = *update.ProfileImageURL
	}

	q := url.Values{}
	q.Set("id", "eq."+id)
	h := http.Header{}
	h.Set("Prefer", "return=representation")

	// Rows hidden by row level security are silently skipped, so an empty
	// representation means nothing was updated.
	var rows []profileJSON
	if err := c.do(ctx, http.MethodPatch, "/rest/v1/profiles?"+q.Encode(), accessToken, body, h, &rows); err != nil {
		return errors.Wrapf(err, "update profile %s", id)
	}
	if len(rows) == 0 {
		return errors.Wrapf(provider.ErrNotFound, "update profile %s", id)
	}
	return nil
}

func (c *Client) Upload(ctx context.Context, accessToken string, obj provider.Object) error {
	if accessToken == "" {
		return provider.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/storage/v1/object/"+objectPath(obj.Bucket, obj.Path), bytes.NewReader(obj.Data))
	if err != nil {
		return errors.Wrap(err, "create upload request")
	}
	c.authorize(req, accessToken)
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", strconv.FormatBool(obj.Upsert))

	slog.Debug("uploading object", "bucket", obj.Bucket, "path", obj.Path, "size", len(obj.Data), "upsert", obj.Upsert)

	if err := c.send(req, nil); err != nil {
		return errors.Wrapf(err, "upload %s/%s", obj.Bucket, obj.Path)
	}
	return nil
}

func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + objectPath(bucket, path)
}

// do sends a JSON request. An empty accessToken authenticates with the anon key.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body any, header http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	c.authorize(req, accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	return c.send(req, out)
}

func (c *Client) authorize(req *http.Request, accessToken string) {
	token := accessToken
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// apiError turns an error body from any of the three APIs into a
// provider.Error. GoTrue uses msg or error_description, PostgREST and Storage
// use message.
func apiError(status int, body []byte) error {
	if status == http.StatusNotAcceptable {
		return provider.ErrNotFound
	}

	var fields map[string]any
	_ = json.Unmarshal(body, &fields)

	msg := ""
	for _, key := range []string{"msg", "message", "error_description", "error"} {
		if s, ok := fields[key].(string); ok && s != "" {
			msg = s
			break
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &provider.Error{Status: status, Message: msg}
}

func singleHeader() http.Header {
	h := http.Header{}
	h.Set("Accept", singleObject)
	return h
}

func objectPath(bucket, path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
