// Package views holds the page models handed to templates and the templ
// components that render them.
package views

import (
	"time"

	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/views/layout"
)

const (
	DefaultDisplayName = "Your Name"
	DefaultBio         = "This is my bio where I can write something about myself."
	DefaultAvatar      = "/public/images/default-avatar.svg"
)

// Base is embedded in every page model.
type Base struct {
	Meta layout.PageMeta
	// Viewer is the username of the logged in user, empty for anonymous pages.
	Viewer string
}

// AuthPage is the login or signup form.
type AuthPage struct {
	Base
	Signup bool
}

// AlertPage shows a browser alert and then navigates to Redirect.
type AlertPage struct {
	Message  string
	Redirect string
}

type ProfilePost struct {
	Image     string
	Caption   string
	Timestamp time.Time
}

type ProfilePage struct {
	Base
	Username     string
	DisplayName  string
	Bio          string
	ProfileImage string
	Posts        []ProfilePost
	IsOwner      bool
}

// NewProfilePage projects a profile and its posts, filling in the defaults
// for fields the user has not set.
func NewProfilePage(base Base, p *provider.ProfileWithPosts) ProfilePage {
	page := ProfilePage{
		Base:         base,
		Username:     p.Username,
		DisplayName:  orDefault(p.DisplayName, DefaultDisplayName),
		Bio:          orDefault(p.Bio, DefaultBio),
		ProfileImage: orDefault(p.ProfileImageURL, DefaultAvatar),
		Posts:        make([]ProfilePost, 0, len(p.Posts)),
		IsOwner:      base.Viewer != "" && base.Viewer == p.Username,
	}
	for _, post := range p.Posts {
		page.Posts = append(page.Posts, ProfilePost{
			Image:     deref(post.ImageURL),
			Caption:   post.Caption,
			Timestamp: post.CreatedAt,
		})
	}
	page.Meta = page.Meta.FromProfile(page.Username, p.DisplayName, p.Bio, page.ProfileImage)
	return page
}

// FeedItem is a post flattened together with its author.
type FeedItem struct {
	Caption      string
	Image        string
	Timestamp    time.Time
	StressLevel  *float64
	DisplayName  string
	ProfileImage string
	Username     string
}

// ViewerProfile is the sidebar card of the logged in user.
type ViewerProfile struct {
	Username     string
	DisplayName  string
	Bio          string
	ProfileImage string
}

type FeedPage struct {
	Base
	Posts   []FeedItem
	Profile ViewerProfile
	// RecommendationsOK reports whether the recommendation service accepted
	// the trigger for this page load.
	RecommendationsOK bool
	Now               time.Time
}

func NewFeedPage(base Base, posts []provider.FeedPost, viewer *provider.Profile, recommendationsOK bool) FeedPage {
	page := FeedPage{
		Base:              base,
		Posts:             make([]FeedItem, 0, len(posts)),
		RecommendationsOK: recommendationsOK,
		Now:               time.Now(),
	}
	for _, p := range posts {
		page.Posts = append(page.Posts, FeedItem{
			Caption:      p.Caption,
			Image:        deref(p.ImageURL),
			Timestamp:    p.CreatedAt,
			StressLevel:  p.StressLevel,
			DisplayName:  orDefault(p.Author.DisplayName, p.Author.Username),
			ProfileImage: orDefault(p.Author.ProfileImageURL, DefaultAvatar),
			Username:     p.Author.Username,
		})
	}
	if viewer != nil {
		page.Profile = ViewerProfile{
			Username:     viewer.Username,
			DisplayName:  orDefault(viewer.DisplayName, DefaultDisplayName),
			Bio:          viewer.Bio,
			ProfileImage: orDefault(viewer.ProfileImageURL, DefaultAvatar),
		}
	}
	return page
}

type CreatePostPage struct {
	Base
	Username     string
	ProfileImage string
}

func NewCreatePostPage(base Base, viewer *provider.Profile) CreatePostPage {
	return CreatePostPage{
		Base:         base,
		Username:     viewer.Username,
		ProfileImage: orDefault(viewer.ProfileImageURL, DefaultAvatar),
	}
}

type EditProfilePage struct {
	Base
	Username     string
	DisplayName  string
	Bio          string
	ProfileImage string
}

// NewEditProfilePage pre-fills the form with the stored values. Unlike the
// profile page, unset fields stay empty.
func NewEditProfilePage(base Base, p *provider.Profile) EditProfilePage {
	return EditProfilePage{
		Base:         base,
		Username:     p.Username,
		DisplayName:  p.DisplayName,
		Bio:          p.Bio,
		ProfileImage: orDefault(p.ProfileImageURL, DefaultAvatar),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
