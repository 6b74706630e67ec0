package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/auth"
	"github.com/loganlanou/snapgram/internal/provider"
	"github.com/loganlanou/snapgram/views"
	"golang.org/x/sync/errgroup"
)

// feedError carries the user facing message of the failed feed query.
type feedError struct {
	message string
	err     error
}

func (e *feedError) Error() string { return e.message + ": " + e.err.Error() }
func (e *feedError) Unwrap() error { return e.err }

// handleHome triggers the recommendation service and loads the feed and the
// viewer's profile concurrently. The trigger never fails the page; it is
// reduced to a flag once its bounded wait is over.
func (s *Service) handleHome(c echo.Context) error {
	data, _ := auth.GetSession(c)
	ctx := c.Request().Context()

	recommendations := make(chan bool, 1)
	go func() {
		recommendations <- s.recommender.Ping(ctx)
	}()

	var (
		posts  []provider.FeedPost
		viewer *provider.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.provider.ListFeed(gctx)
		if err != nil {
			return &feedError{message: "Error fetching posts", err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		viewer, err = s.provider.ProfileByID(gctx, data.UserID)
		if err != nil {
			return &feedError{message: "Error fetching user profile", err: err}
		}
		return nil
	})

	err := g.Wait()
	recommendationsOK := <-recommendations

	if err != nil {
		slog.Error("error loading home feed", "user_id", data.UserID, "error", err)
		var fe *feedError
		if errors.As(err, &fe) {
			return c.String(http.StatusInternalServerError, fe.message)
		}
		return c.String(http.StatusInternalServerError, "Internal Server Error")
	}

	base := s.base(c)
	base.Meta = base.Meta.WithTitle("Home")
	return Render(c, views.Feed(views.NewFeedPage(base, posts, viewer, recommendationsOK)))
}
