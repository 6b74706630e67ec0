package main

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/internal/provider/local"
	"github.com/loganlanou/snapgram/internal/provider/supabase"
	"github.com/loganlanou/snapgram/internal/session"
	"github.com/loganlanou/snapgram/service"
	"github.com/loganlanou/snapgram/storage"
	"github.com/pkg/errors"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// newProvider builds the configured backend and a func releasing its resources.
func newProvider(ctx context.Context, config *service.Config) (provider.Client, func(), error) {
	if config.Provider != service.ProviderLocal {
		return supabase.NewClient(config.Supabase.URL, config.Supabase.AnonKey), func() {}, nil
	}

	db, err := storage.New(config.Local.DBPath)
	if err != nil {
		return nil, nil, err
	}

	bucket, err := openBucket(ctx, config.Local.BlobURL)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	p, err := local.New(db, bucket, local.Options{
		BaseURL:   config.BaseURL,
		JWTSecret: config.Local.JWTSecret,
	})
	if err != nil {
		bucket.Close()
		db.Close()
		return nil, nil, err
	}

	return p, func() {
		bucket.Close()
		db.Close()
	}, nil
}

// openBucket opens a gocloud bucket URL, creating the directory of file://
// buckets first.
func openBucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse bucket url %q", bucketURL)
	}
	if u.Scheme == "file" {
		dir := u.Path
		if u.Host == "." {
			dir = strings.TrimPrefix(dir, "/")
		}
		if err := os.MkdirAll(filepath.FromSlash(dir), 0o755); err != nil {
			return nil, errors.Wrap(err, "create bucket directory")
		}
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %q", bucketURL)
	}
	return bucket, nil
}

func newSessionStore(ctx context.Context, config *service.Config) (session.Store, func(), error) {
	if config.Session.Store != service.SessionStoreRedis {
		return session.NewMemoryStore(), func() {}, nil
	}

	client, err := session.DialRedis(ctx, config.Session.RedisAddr, config.Session.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client), func() { client.Close() }, nil
}
