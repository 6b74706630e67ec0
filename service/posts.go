package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/auth"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/views"
)

type postResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (s *Service) handleCreatePostPage(c echo.Context) error {
	userID, _ := auth.GetUserID(c)

	profile, err := s.provider.ProfileByID(c.Request().Context(), userID)
	if err != nil {
		slog.Error("error fetching profile for create-post", "user_id", userID, "error", err)
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}

	base := s.base(c)
	base.Meta = base.Meta.WithTitle("Create new post")
	return Render(c, views.CreatePost(views.NewCreatePostPage(base, profile)))
}

// handleCreatePost uploads the optional image and inserts the post as the
// logged in user. The composer script expects JSON either way.
func (s *Service) handleCreatePost(c echo.Context) error {
	data, _ := auth.GetSession(c)
	ctx := c.Request().Context()
	s.limitBody(c)

	caption := c.FormValue("caption")

	file, err := s.formFile(c, "image")
	if errors.Is(err, errUploadTooLarge) {
		return c.JSON(http.StatusRequestEntityTooLarge, postResponse{Message: "Image is too large."})
	}
	if err != nil {
		slog.Error("post upload rejected", "user_id", data.UserID, "error", err)
		return c.JSON(http.StatusInternalServerError, postResponse{Message: "Could not upload image."})
	}

	var imageURL *string
	if file != nil {
		objectPath := fmt.Sprintf("%s/%d-%s", data.UserID, time.Now().UnixMilli(), file.Name)
		err := s.provider.Upload(ctx, data.AccessToken, provider.Object{
			Bucket:      provider.BucketPostImages,
			Path:        objectPath,
			ContentType: file.ContentType,
			Data:        file.Data,
		})
		if err != nil {
			slog.Error("post upload error", "user_id", data.UserID, "error", err)
			return c.JSON(http.StatusInternalServerError, postResponse{Message: "Could not upload image."})
		}
		u := s.provider.PublicURL(provider.BucketPostImages, objectPath)
		imageURL = &u
	}

	err = s.provider.InsertPost(ctx, data.AccessToken, provider.NewPost{
		UserID:   data.UserID,
		Caption:  caption,
		ImageURL: imageURL,
	})
	if err != nil {
		slog.Error("error inserting post data", "user_id", data.UserID, "error", err)
		return c.JSON(http.StatusInternalServerError, postResponse{Message: "Database Error"})
	}

	slog.Info("post created", "user_id", data.UserID, "has_image", imageURL != nil)
	return c.JSON(http.StatusOK, postResponse{Success: true, Username: data.Username})
}
