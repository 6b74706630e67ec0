package service

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/auth"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/views"
)

func (s *Service) handleProfile(c echo.Context) error {
	username := c.Param("username")
	if unescaped, err := url.PathUnescape(username); err == nil {
		username = unescaped
	}

	profile, err := s.provider.ProfileByUsername(c.Request().Context(), username)
	if errors.Is(err, provider.ErrNotFound) {
		return c.String(http.StatusNotFound, "User not found")
	}
	if err != nil {
		slog.Error("error fetching profile", "username", username, "error", err)
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}

	return Render(c, views.Profile(views.NewProfilePage(s.base(c), profile)))
}

func (s *Service) handleEditProfilePage(c echo.Context) error {
	userID, _ := auth.GetUserID(c)

	profile, err := s.provider.ProfileByID(c.Request().Context(), userID)
	if err != nil {
		slog.Error("error fetching profile for editing", "user_id", userID, "error", err)
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}

	base := s.base(c)
	base.Meta = base.Meta.WithTitle("Edit profile")
	return Render(c, views.EditProfile(views.NewEditProfilePage(base, profile)))
}

// handleEditProfile updates display name and bio, and replaces the avatar when
// a new one is uploaded. Avatars live at a fixed path per user and are
// overwritten in place; the stored URL carries a version so browsers refetch.
func (s *Service) handleEditProfile(c echo.Context) error {
	data, _ := auth.GetSession(c)
	if data.AccessToken == "" {
		return c.String(http.StatusUnauthorized, "Auth error: No access token found in session.")
	}

	ctx := c.Request().Context()
	s.limitBody(c)

	update := provider.ProfileUpdate{
		DisplayName: c.FormValue("display_name"),
		Bio:         c.FormValue("bio"),
	}

	file, err := s.formFile(c, "profile_image")
	if err != nil {
		slog.Error("avatar upload rejected", "user_id", data.UserID, "error", err)
		return c.String(http.StatusInternalServerError, "Could not upload new profile image.")
	}

	if file != nil {
		objectPath := data.UserID + "/avatar"
		err := s.provider.Upload(ctx, data.AccessToken, provider.Object{
			Bucket:      provider.BucketProfileImages,
			Path:        objectPath,
			ContentType: file.ContentType,
			Data:        file.Data,
			Upsert:      true,
		})
		if err != nil {
			slog.Error("avatar upload error", "user_id", data.UserID, "error", err)
			return c.String(http.StatusInternalServerError, "Could not upload new profile image.")
		}

		imageURL := s.provider.PublicURL(provider.BucketProfileImages, objectPath) +
			"?v=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
		update.ProfileImageURL = &imageURL
	}

	if err := s.provider.UpdateProfile(ctx, data.AccessToken, data.UserID, update); err != nil {
		slog.Error("error updating profile", "user_id", data.UserID, "error", err)
		return c.String(http.StatusInternalServerError, "Database error while updating profile.")
	}

	return c.Redirect(http.StatusFound, "/profile/"+url.PathEscape(data.Username))
}
