// Command seed-fake-data fills the local backend with fake users and posts.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/internal/provider/local"
	"github.com/loganlanou/snapgram/storage"
	"github.com/loganlanou/snapgram/storage/db"
	"gocloud.dev/blob/fileblob"
)

const (
	numUsers        = 12
	maxPostsPerUser = 6
	password        = "password123"
)

func main() {
	ctx := context.Background()

	dbPath := getenv("LOCAL_DB_PATH", "./data/snapgram.db")
	blobDir := getenv("LOCAL_BLOB_DIR", "./data/blobs")
	baseURL := getenv("BASE_URL", "http://localhost:5500")
	secret := getenv("LOCAL_JWT_SECRET", "development-secret")

	store, err := storage.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	count, err := store.Queries.CountUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}
	if count > 0 && os.Getenv("FORCE") == "" {
		fmt.Printf("Database already has %d users, set FORCE=1 to add more\n", count)
		return
	}

	bucket, err := fileblob.OpenBucket(blobDir, &fileblob.Options{CreateDir: true})
	if err != nil {
		log.Fatalf("Failed to open blob directory: %v", err)
	}
	defer bucket.Close()

	p, err := local.New(store, bucket, local.Options{BaseURL: baseURL, JWTSecret: secret})
	if err != nil {
		log.Fatalf("Failed to create provider: %v", err)
	}

	fmt.Println("🌱 Seeding fake data...")
	var posts int
	for i := 0; i < numUsers; i++ {
		n, err := seedUser(ctx, p, store.Queries)
		if err != nil {
			log.Printf("Skipping user: %v", err)
			continue
		}
		posts += n
	}
	fmt.Printf("✅ Created %d users and %d posts (password: %s)\n", numUsers, posts, password)
}

// seedUser signs up one fake user, fills in the profile and adds some posts.
func seedUser(ctx context.Context, p *local.Provider, queries *db.Queries) (int, error) {
	person := gofakeit.Person()
	username := strings.ToLower(person.FirstName + "_" + gofakeit.Username())
	email := strings.ToLower(fmt.Sprintf("%s@example.com", username))

	user, err := p.SignUp(ctx, email, password, map[string]any{"username": username})
	if err != nil {
		return 0, fmt.Errorf("sign up %s: %w", email, err)
	}
	sess, err := p.SignInWithPassword(ctx, email, password)
	if err != nil {
		return 0, fmt.Errorf("sign in %s: %w", email, err)
	}
	token := sess.AccessToken

	avatarPath := user.ID + "/avatar"
	if err := p.Upload(ctx, token, provider.Object{
		Bucket:      provider.BucketProfileImages,
		Path:        avatarPath,
		ContentType: "image/png",
		Data:        gofakeit.ImagePng(160, 160),
		Upsert:      true,
	}); err != nil {
		return 0, fmt.Errorf("upload avatar: %w", err)
	}
	avatarURL := p.PublicURL(provider.BucketProfileImages, avatarPath)

	if err := p.UpdateProfile(ctx, token, user.ID, provider.ProfileUpdate{
		DisplayName:     person.FirstName + " " + person.LastName,
		Bio:             gofakeit.Sentence(10),
		ProfileImageURL: &avatarURL,
	}); err != nil {
		return 0, fmt.Errorf("update profile: %w", err)
	}

	numPosts := gofakeit.Number(1, maxPostsPerUser)
	for i := 0; i < numPosts; i++ {
		post := provider.NewPost{UserID: user.ID, Caption: gofakeit.Sentence(gofakeit.Number(3, 12))}

		if gofakeit.Bool() {
			path := fmt.Sprintf("%s/%d-%s.png", user.ID, i, gofakeit.Word())
			if err := p.Upload(ctx, token, provider.Object{
				Bucket:      provider.BucketPostImages,
				Path:        path,
				ContentType: "image/png",
				Data:        gofakeit.ImagePng(640, 640),
			}); err != nil {
				return i, fmt.Errorf("upload post image: %w", err)
			}
			u := p.PublicURL(provider.BucketPostImages, path)
			post.ImageURL = &u
		}

		if err := p.InsertPost(ctx, token, post); err != nil {
			return i, fmt.Errorf("insert post: %w", err)
		}
	}

	// stress levels come from the recommendation service in production
	rows, err := queries.ListPostsByUser(ctx, user.ID)
	if err != nil {
		return numPosts, fmt.Errorf("list posts: %w", err)
	}
	for _, row := range rows {
		if gofakeit.Bool() {
			continue
		}
		err := queries.SetPostStressLevel(ctx, db.SetPostStressLevelParams{
			StressLevel: sql.NullFloat64{Float64: gofakeit.Float64Range(0, 1), Valid: true},
			ID:          row.ID,
		})
		if err != nil {
			return numPosts, fmt.Errorf("set stress level: %w", err)
		}
	}

	fmt.Printf("  👤 %s (%d posts)\n", username, numPosts)
	return numPosts, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
