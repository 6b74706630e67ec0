// Package provider describes the identity, data and object-storage backend the
// web application delegates all durable state to.
package provider

import (
	"context"
	"errors"
	"time"
)

// Buckets used for user uploads.
const (
	BucketPostImages    = "post_images"
	BucketProfileImages = "profile_images"
)

var (
	ErrNotFound           = errors.New("provider: not found")
	ErrInvalidCredentials = errors.New("provider: invalid login credentials")
	ErrUnauthorized       = errors.New("provider: unauthorized")
)

// Error is a failure reported by the backend itself. Message is safe to show to
// the user; it is what the backend said.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Message extracts the most user-presentable text from err.
func Message(err error) string {
	var perr *Error
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid login credentials"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	}
	return "Unexpected error"
}

// User is an account as known by the identity backend.
type User struct {
	ID       string
	Email    string
	Metadata map[string]any
}

// AuthSession is the result of a successful password sign-in.
type AuthSession struct {
	User        User
	AccessToken string
}

// Profile is a row of the profiles table. ID equals the owning user's ID.
type Profile struct {
	ID              string
	Username        string
	DisplayName     string
	Bio             string
	ProfileImageURL string
}

// Post is a row of the posts table.
type Post struct {
	ID          string
	UserID      string
	Caption     string
	ImageURL    *string
	CreatedAt   time.Time
	StressLevel *float64
}

// ProfileWithPosts is a profile joined with its posts, newest first.
type ProfileWithPosts struct {
	Profile
	Posts []Post
}

// FeedPost is a post joined with the public fields of its author.
type FeedPost struct {
	Post
	Author Profile
}

// NewPost is the payload for InsertPost.
type NewPost struct {
	UserID   string
	Caption  string
	ImageURL *string
}

// ProfileUpdate is the payload for UpdateProfile. A nil ProfileImageURL leaves
// the stored avatar untouched.
type ProfileUpdate struct {
	DisplayName     string
	Bio             string
	ProfileImageURL *string
}

// Object is an upload into one of the buckets.
type Object struct {
	Bucket      string
	Path        string
	ContentType string
	Data        []byte
	Upsert      bool
}

// Client is the full backend contract consumed by the application. Writes take
// the acting user's access token so the backend can authorize them as that user.
type Client interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error)

	ProfileByID(ctx context.Context, id string) (*Profile, error)
	ProfileByUsername(ctx context.Context, username string) (*ProfileWithPosts, error)
	ListFeed(ctx context.Context) ([]FeedPost, error)

	InsertPost(ctx context.Context, accessToken string, post NewPost) error
	UpdateProfile(ctx context.Context, accessToken, id string, update ProfileUpdate) error

	Upload(ctx context.Context, accessToken string, obj Object) error
	PublicURL(bucket, path string) string
}
