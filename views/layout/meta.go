package layout

import (
	"strings"
)

const (
	SiteName           = "Snapgram"
	DefaultDescription = "Share photos and moments with the people you follow."
	DefaultOGImage     = "/public/images/og-default.png"
)

// PageMeta contains the metadata rendered into every page head (SEO, Open
// Graph, Twitter)
type PageMeta struct {
	// Basic HTML meta
	Title        string
	Description  string
	CanonicalURL string

	// Open Graph
	OGType        string // "website" or "profile"
	OGTitle       string
	OGDescription string
	OGImageURL    string // MUST be absolute URL
	OGURL         string // MUST be absolute URL
	OGSiteName    string

	// Twitter Cards
	TwitterCard        string
	TwitterTitle       string
	TwitterDescription string
	TwitterImageURL    string

	// Internal state
	SiteURL string
	// Robots is "noindex" for pages behind the login
	Robots string
}

// NewPageMeta creates a PageMeta with site-wide defaults for the page at path.
// Call this first, then chain modifiers.
func NewPageMeta(siteURL, path string) PageMeta {
	canonicalURL := BuildAbsoluteURL(siteURL, path)
	ogImage := BuildAbsoluteURL(siteURL, DefaultOGImage)

	return PageMeta{
		Title:        SiteName,
		Description:  DefaultDescription,
		CanonicalURL: canonicalURL,

		OGType:        "website",
		OGTitle:       SiteName,
		OGDescription: DefaultDescription,
		OGImageURL:    ogImage,
		OGURL:         canonicalURL,
		OGSiteName:    SiteName,

		TwitterCard:        "summary",
		TwitterTitle:       SiteName,
		TwitterDescription: DefaultDescription,
		TwitterImageURL:    ogImage,

		SiteURL: siteURL,
	}
}

// WithTitle sets the page title, keeping the site name as suffix
func (pm PageMeta) WithTitle(title string) PageMeta {
	if title == "" {
		return pm
	}
	pm.Title = title + " • " + pm.OGSiteName
	pm.OGTitle = title
	pm.TwitterTitle = title
	return pm
}

// Private marks the page as not indexable
func (pm PageMeta) Private() PageMeta {
	pm.Robots = "noindex"
	return pm
}

// FromProfile updates PageMeta for a profile page
func (pm PageMeta) FromProfile(username, displayName, bio, imageURL string) PageMeta {
	title := "@" + username
	if displayName != "" {
		title = displayName + " (@" + username + ")"
	}
	pm = pm.WithTitle(title)

	if bio != "" {
		pm.Description = bio
		pm.OGDescription = bio
		pm.TwitterDescription = bio
	}

	pm.OGType = "profile"
	if imageURL != "" {
		pm.OGImageURL = BuildAbsoluteURL(pm.SiteURL, imageURL)
		pm.TwitterImageURL = pm.OGImageURL
	}
	return pm
}

// BuildAbsoluteURL constructs an absolute URL from a path
func BuildAbsoluteURL(siteURL, path string) string {
	// Handle empty path
	if path == "" {
		return siteURL
	}

	// Handle already absolute URLs
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	// Remove trailing slash from site URL
	siteURL = strings.TrimRight(siteURL, "/")

	// Ensure path starts with /
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return siteURL + path
}
