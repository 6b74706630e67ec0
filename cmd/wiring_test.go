package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/loganlanou/snapgram/internal/provider/local"
	"github.com/loganlanou/snapgram/internal/provider/supabase"
	"github.com/loganlanou/snapgram/internal/session"
	"github.com/loganlanou/snapgram/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Local(t *testing.T) {
	dir := t.TempDir()
	config := &service.Config{Provider: service.ProviderLocal, BaseURL: "http://localhost:5500"}
	config.Local.DBPath = filepath.Join(dir, "data", "snapgram.db")
	config.Local.BlobURL = "mem://"
	config.Local.JWTSecret = "secret"

	client, closeFn, err := newProvider(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(closeFn)

	assert.IsType(t, &local.Provider{}, client)
	assert.Equal(t, "http://localhost:5500/storage/post_images/u1/a.png", client.PublicURL("post_images", "u1/a.png"))
}

func TestNewProvider_Supabase(t *testing.T) {
	config := &service.Config{Provider: service.ProviderSupabase}
	config.Supabase.URL = "https://project.supabase.co"
	config.Supabase.AnonKey = "anon"

	client, closeFn, err := newProvider(context.Background(), config)
	require.NoError(t, err)
	closeFn()

	assert.IsType(t, &supabase.Client{}, client)
}

func TestOpenBucket_FileCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")

	bucket, err := openBucket(context.Background(), "file://"+filepath.ToSlash(dir))
	require.NoError(t, err)
	defer bucket.Close()

	assert.DirExists(t, dir)
}

func TestNewSessionStore_Memory(t *testing.T) {
	config := &service.Config{}
	config.Session.Store = service.SessionStoreMemory

	store, closeFn, err := newSessionStore(context.Background(), config)
	require.NoError(t, err)
	closeFn()

	assert.IsType(t, &session.MemoryStore{}, store)
}
