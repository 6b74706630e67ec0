// Package local is a self-hosted implementation of the provider contract backed
// by SQLite for accounts, profiles and posts and a gocloud.dev blob bucket for
// uploaded images. It mirrors the hosted backend closely enough for local
// development, seeding and tests.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/storage"
	"github.com/loganlanou/snapgram/storage/db"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Options configures a Provider.
type Options struct {
	// BaseURL is the externally reachable address of the app; public object
	// URLs are built under BaseURL + "/storage".
	BaseURL   string
	JWTSecret string
	TokenTTL  time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// Now is overridable for tests.
	Now func() time.Time
}

// Provider implements provider.Client on top of storage and a blob bucket.
type Provider struct {
	store   *storage.Storage
	bucket  *blob.Bucket
	baseURL string
	secret  []byte
	ttl     time.Duration
	cost    int
	now     func() time.Time
}

var _ provider.Client = (*Provider)(nil)

func New(store *storage.Storage, bucket *blob.Bucket, opts Options) (*Provider, error) {
	if opts.JWTSecret == "" {
		return nil, errors.New("local provider: jwt secret is required")
	}
	p := &Provider{
		store:   store,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		secret:  []byte(opts.JWTSecret),
		ttl:     opts.TokenTTL,
		cost:    opts.BcryptCost,
		now:     opts.Now,
	}
	if p.ttl <= 0 {
		p.ttl = defaultTokenTTL
	}
	if p.cost == 0 {
		p.cost = bcrypt.DefaultCost
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SignUp creates the account and, like the hosted backend's signup trigger,
// its profile row using metadata["username"].
func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*provider.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, &provider.Error{Status: http.StatusBadRequest, Message: "Signup requires a valid password"}
	}
	if len(password) < 6 {
		return nil, &provider.Error{Status: http.StatusUnprocessableEntity, Message: "Password should be at least 6 characters."}
	}

	username, _ := metadata["username"].(string)
	username = strings.TrimSpace(username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.Wrap(err, "encode user metadata")
	}

	userID := uuid.NewString()
	err = p.store.WithTx(func(q *db.Queries) error {
		if _, err := q.CreateUser(ctx, db.CreateUserParams{
			ID:              userID,
			Email:           email,
			PasswordHash:    string(hash),
			RawUserMetaData: string(meta),
			CreatedAt:       db.FormatTime(p.now()),
		}); err != nil {
			if isUniqueErr(err, "users.email") {
				return &provider.Error{Status: http.StatusUnprocessableEntity, Message: "User already registered"}
			}
			return errors.Wrap(err, "insert user")
		}
		if _, err := q.CreateProfile(ctx, db.CreateProfileParams{ID: userID, Username: username}); err != nil {
			if isUniqueErr(err, "profiles.username") {
				return &provider.Error{Status: http.StatusInternalServerError, Message: "Database error saving new user"}
			}
			return errors.Wrap(err, "insert profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &provider.User{ID: userID, Email: email, Metadata: metadata}, nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*provider.AuthSession, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := p.store.Queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, provider.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, provider.ErrInvalidCredentials
	}

	token, err := p.issueToken(u.ID, u.Email)
	if err != nil {
		return nil, err
	}

	var meta map[string]any
	_ = json.Unmarshal([]byte(u.RawUserMetaData), &meta)

	return &provider.AuthSession{
		User:        provider.User{ID: u.ID, Email: u.Email, Metadata: meta},
		AccessToken: token,
	}, nil
}

func (p *Provider) issueToken(userID, email string) (string, error) {
	now := p.now()
	claims := accessClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign access token")
	}
	return signed, nil
}

// subject validates an access token and returns the user it was issued to.
func (p *Provider) subject(accessToken string) (string, error) {
	if accessToken == "" {
		return "", provider.ErrUnauthorized
	}
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return "", errors.Wrap(provider.ErrUnauthorized, err.Error())
	}
	return claims.Subject, nil
}

func (p *Provider) ProfileByID(ctx context.Context, id string) (*provider.Profile, error) {
	row, err := p.store.Queries.GetProfileByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, provider.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query profile")
	}
	profile := toProfile(row)
	return &profile, nil
}

func (p *Provider) ProfileByUsername(ctx context.Context, username string) (*provider.ProfileWithPosts, error) {
	row, err := p.store.Queries.GetProfileByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, provider.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query profile")
	}

	posts, err := p.store.Queries.ListPostsByUser(ctx, row.ID)
	if err != nil {
		return nil, errors.Wrap(err, "query posts")
	}

	out := &provider.ProfileWithPosts{
		Profile: toProfile(row),
		Posts:   make([]provider.Post, 0, len(posts)),
	}
	for _, post := range posts {
		converted, err := toPost(post)
		if err != nil {
			return nil, err
		}
		out.Posts = append(out.Posts, converted)
	}
	return out, nil
}

func (p *Provider) ListFeed(ctx context.Context) ([]provider.FeedPost, error) {
	rows, err := p.store.Queries.ListFeedPosts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "query feed")
	}

	feed := make([]provider.FeedPost, 0, len(rows))
	for _, r := range rows {
		post, err := toPost(db.Post{
			ID:          r.ID,
			UserID:      r.UserID,
			Caption:     r.Caption,
			ImageUrl:    r.ImageUrl,
			CreatedAt:   r.CreatedAt,
			StressLevel: r.StressLevel,
		})
		if err != nil {
			return nil, err
		}
		feed = append(feed, provider.FeedPost{
			Post: post,
			Author: provider.Profile{
				ID:              r.UserID,
				Username:        r.Username,
				DisplayName:     r.DisplayName.String,
				ProfileImageURL: r.ProfileImageUrl.String,
			},
		})
	}
	return feed, nil
}

func (p *Provider) InsertPost(ctx context.Context, accessToken string, post provider.NewPost) error {
	sub, err := p.subject(accessToken)
	if err != nil {
		return err
	}
	if sub != post.UserID {
		return &provider.Error{Status: http.StatusForbidden, Message: "new row violates row-level security policy for table \"posts\""}
	}

	_, err = p.store.Queries.CreatePost(ctx, db.CreatePostParams{
		ID:        ulid.Make().String(),
		UserID:    post.UserID,
		Caption:   sql.NullString{String: post.Caption, Valid: true},
		ImageUrl:  nullString(post.ImageURL),
		CreatedAt: db.FormatTime(p.now()),
	})
	if err != nil {
		return errors.Wrap(err, "insert post")
	}
	return nil
}

func (p *Provider) UpdateProfile(ctx context.Context, accessToken, id string, update provider.ProfileUpdate) error {
	sub, err := p.subject(accessToken)
	if err != nil {
		return err
	}
	if sub != id {
		return &provider.Error{Status: http.StatusForbidden, Message: "permission denied for table profiles"}
	}

	n, err := p.store.Queries.UpdateProfile(ctx, db.UpdateProfileParams{
		DisplayName:     sql.NullString{String: update.DisplayName, Valid: true},
		Bio:             sql.NullString{String: update.Bio, Valid: true},
		ProfileImageUrl: nullString(update.ProfileImageURL),
		ID:              id,
	})
	if err != nil {
		return errors.Wrap(err, "update profile")
	}
	if n == 0 {
		return provider.ErrNotFound
	}
	return nil
}

// Upload stores obj under "<bucket>/<path>". Objects may only be written below
// the acting user's own folder, i.e. paths starting with "<userID>/".
func (p *Provider) Upload(ctx context.Context, accessToken string, obj provider.Object) error {
	sub, err := p.subject(accessToken)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(obj.Path, sub+"/") {
		return &provider.Error{Status: http.StatusForbidden, Message: "new row violates row-level security policy"}
	}

	key := objectKey(obj.Bucket, obj.Path)
	if !obj.Upsert {
		exists, err := p.bucket.Exists(ctx, key)
		if err != nil {
			return errors.Wrap(err, "check object")
		}
		if exists {
			return &provider.Error{Status: http.StatusConflict, Message: "The resource already exists"}
		}
	}

	if err := p.bucket.WriteAll(ctx, key, obj.Data, &blob.WriterOptions{ContentType: obj.ContentType}); err != nil {
		return errors.Wrapf(err, "write object %s", key)
	}
	return nil
}

func (p *Provider) PublicURL(bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return p.baseURL + "/storage/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// Object is a stored upload opened for reading.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
	ModTime     time.Time
}

// OpenObject opens a stored object for serving. Unknown objects yield
// provider.ErrNotFound.
func (p *Provider) OpenObject(ctx context.Context, bucket, path string) (*Object, error) {
	r, err := p.bucket.NewReader(ctx, objectKey(bucket, path), nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, provider.ErrNotFound
		}
		return nil, errors.Wrap(err, "open object")
	}
	return &Object{
		ReadCloser:  r,
		ContentType: r.ContentType(),
		Size:        r.Size(),
		ModTime:     r.ModTime(),
	}, nil
}

func objectKey(bucket, path string) string {
	return bucket + "/" + strings.TrimPrefix(path, "/")
}

func toProfile(row db.Profile) provider.Profile {
	return provider.Profile{
		ID:              row.ID,
		Username:        row.Username,
		DisplayName:     row.DisplayName.String,
		Bio:             row.Bio.String,
		ProfileImageURL: row.ProfileImageUrl.String,
	}
}

func toPost(row db.Post) (provider.Post, error) {
	created, err := db.ParseTime(row.CreatedAt)
	if err != nil {
		return provider.Post{}, errors.Wrapf(err, "parse created_at of post %s", row.ID)
	}
	post := provider.Post{
		ID:        row.ID,
		UserID:    row.UserID,
		Caption:   row.Caption.String,
		CreatedAt: created,
	}
	if row.ImageUrl.Valid {
		u := row.ImageUrl.String
		post.ImageURL = &u
	}
	if row.StressLevel.Valid {
		s := row.StressLevel.Float64
		post.StressLevel = &s
	}
	return post, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// isUniqueErr reports a UNIQUE violation on col; both SQLite drivers use the
// same message text.
func isUniqueErr(err error, col string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, strings.ToLower(col))
}
