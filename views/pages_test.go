package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/views/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func strPtr(s string) *string { return &s }

func testBase(viewer string) Base {
	return Base{Meta: layout.NewPageMeta("http://localhost:5500", "/"), Viewer: viewer}
}

func TestNewProfilePage_Defaults(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &provider.ProfileWithPosts{
		Profile: provider.Profile{ID: "u1", Username: "alice"},
		Posts: []provider.Post{
			{ID: "p1", Caption: "hello", ImageURL: strPtr("http://img/1.png"), CreatedAt: created},
			{ID: "p2", Caption: "text only", CreatedAt: created.Add(-time.Hour)},
		},
	}

	page := NewProfilePage(testBase("bob"), p)

	assert.Equal(t, DefaultDisplayName, page.DisplayName)
	assert.Equal(t, DefaultBio, page.Bio)
	assert.Equal(t, DefaultAvatar, page.ProfileImage)
	assert.False(t, page.IsOwner)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, ProfilePost{Image: "http://img/1.png", Caption: "hello", Timestamp: created}, page.Posts[0])
	assert.Equal(t, "", page.Posts[1].Image)
}

func TestNewProfilePage_Owner(t *testing.T) {
	p := &provider.ProfileWithPosts{
		Profile: provider.Profile{ID: "u1", Username: "alice", DisplayName: "Alice", Bio: "hi", ProfileImageURL: "http://img/a.png"},
	}

	page := NewProfilePage(testBase("alice"), p)

	assert.True(t, page.IsOwner)
	assert.Equal(t, "Alice", page.DisplayName)
	assert.Equal(t, "hi", page.Bio)
	assert.Equal(t, "http://img/a.png", page.ProfileImage)
	assert.Equal(t, "Alice (@alice) • Snapgram", page.Meta.Title)

	html := render(t, Profile(page))
	assert.Contains(t, html, `href="/edit-profile"`)
	assert.Contains(t, html, "Alice")
}

func TestProfile_RendersDefaultsAndEscapes(t *testing.T) {
	p := &provider.ProfileWithPosts{
		Profile: provider.Profile{ID: "u1", Username: "alice"},
		Posts:   []provider.Post{{ID: "p1", Caption: "<script>x</script>", CreatedAt: time.Now()}},
	}

	html := render(t, Profile(NewProfilePage(testBase("bob"), p)))

	assert.Contains(t, html, DefaultDisplayName)
	assert.Contains(t, html, DefaultBio)
	assert.Contains(t, html, DefaultAvatar)
	assert.NotContains(t, html, `href="/edit-profile"`)
	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, "&lt;script&gt;x&lt;/script&gt;")
}

func TestNewFeedPage_Projection(t *testing.T) {
	level := 0.8
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	posts := []provider.FeedPost{
		{
			Post:   provider.Post{Caption: "hey", ImageURL: strPtr("http://img/p.png"), CreatedAt: created, StressLevel: &level},
			Author: provider.Profile{Username: "bob", DisplayName: "Bob", ProfileImageURL: "http://img/b.png"},
		},
		{
			Post:   provider.Post{Caption: "hi", CreatedAt: created.Add(-time.Minute)},
			Author: provider.Profile{Username: "alice"},
		},
	}
	viewer := &provider.Profile{Username: "alice", Bio: "me"}

	page := NewFeedPage(testBase("alice"), posts, viewer, false)

	require.Len(t, page.Posts, 2)
	assert.Equal(t, FeedItem{
		Caption:      "hey",
		Image:        "http://img/p.png",
		Timestamp:    created,
		StressLevel:  &level,
		DisplayName:  "Bob",
		ProfileImage: "http://img/b.png",
		Username:     "bob",
	}, page.Posts[0])
	assert.Equal(t, "alice", page.Posts[1].DisplayName)
	assert.Equal(t, DefaultAvatar, page.Posts[1].ProfileImage)
	assert.Nil(t, page.Posts[1].StressLevel)

	assert.Equal(t, "alice", page.Profile.Username)
	assert.Equal(t, DefaultDisplayName, page.Profile.DisplayName)
	assert.False(t, page.RecommendationsOK)
}

func TestFeed_RendersRecommendationState(t *testing.T) {
	level := 0.9
	posts := []provider.FeedPost{{
		Post:   provider.Post{Caption: "hey", CreatedAt: time.Now(), StressLevel: &level},
		Author: provider.Profile{Username: "bob"},
	}}
	viewer := &provider.Profile{Username: "alice"}

	failed := render(t, Feed(NewFeedPage(testBase("alice"), posts, viewer, false)))
	assert.Contains(t, failed, `data-recommendations="unavailable"`)
	assert.Contains(t, failed, "stress-high")
	assert.Contains(t, failed, "90%")

	ok := render(t, Feed(NewFeedPage(testBase("alice"), posts, viewer, true)))
	assert.NotContains(t, ok, `data-recommendations="unavailable"`)
}

func TestAlert_EscapesMessage(t *testing.T) {
	html := render(t, Alert(AlertPage{
		Message:  `Signup failed: "</script><script>evil()</script>`,
		Redirect: "/signup",
	}))

	assert.NotContains(t, html, "<script>evil()")
	assert.Contains(t, html, "alert(")
	assert.Contains(t, html, `href="/signup"`)
}

func TestLoginAndSignup(t *testing.T) {
	login := render(t, Login(AuthPage{Base: testBase("")}))
	assert.Contains(t, login, `action="/login"`)
	assert.NotContains(t, login, "sidebar-nav")

	signup := render(t, Signup(AuthPage{Base: testBase("")}))
	assert.Contains(t, signup, `action="/signup"`)
	assert.Contains(t, signup, `name="username"`)
}

func TestEditProfile_Prefilled(t *testing.T) {
	page := NewEditProfilePage(testBase("alice"), &provider.Profile{Username: "alice", DisplayName: "Alice", Bio: "bio"})

	html := render(t, EditProfile(page))
	assert.Contains(t, html, `value="Alice"`)
	assert.Contains(t, html, ">bio</textarea>")
	assert.Contains(t, html, `name="profile_image"`)
}

func TestCreatePost_Composer(t *testing.T) {
	page := NewCreatePostPage(testBase("alice"), &provider.Profile{Username: "alice"})

	html := render(t, CreatePost(page))
	assert.Contains(t, html, `id="post-form"`)
	assert.Contains(t, html, DefaultAvatar)
	assert.Contains(t, html, "/public/js/create-post.js")
}
