package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store for unknown or expired session ids.
var ErrNotFound = errors.New("session: not found")

// Store keeps session data on the server, keyed by the id carried in the
// session cookie.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Set(ctx context.Context, id string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
