package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/snapgram/internal/provider"
)

var errUploadTooLarge = errors.New("upload too large")

type upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// formFile reads the multipart file in field. A request without that file
// yields (nil, nil).
func (s *Service) formFile(c echo.Context, field string) (*upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errUploadTooLarge
		}
		return nil, fmt.Errorf("read form file %s: %w", field, err)
	}
	if fh.Size > s.config.Upload.MaxSize {
		return nil, errUploadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open form file %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.config.Upload.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", field, err)
	}
	if int64(len(data)) > s.config.Upload.MaxSize {
		return nil, errUploadTooLarge
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}

	name := filepath.Base(fh.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "image"
	}

	return &upload{Name: name, ContentType: contentType, Data: data}, nil
}

// limitBody caps the request body a little above the upload limit so the
// multipart parser fails fast on oversized requests.
func (s *Service) limitBody(c echo.Context) {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, s.config.Upload.MaxSize+1<<20)
}

func (s *Service) handleStorageObject(opener objectOpener) echo.HandlerFunc {
	return func(c echo.Context) error {
		bucket := c.Param("bucket")
		if bucket != provider.BucketPostImages && bucket != provider.BucketProfileImages {
			return c.String(http.StatusNotFound, "Not found")
		}

		objectPath := c.Param("*")
		if unescaped, err := url.PathUnescape(objectPath); err == nil {
			objectPath = unescaped
		}
		if objectPath == "" || strings.Contains(objectPath, "..") {
			return c.String(http.StatusNotFound, "Not found")
		}

		obj, err := opener.OpenObject(c.Request().Context(), bucket, objectPath)
		if errors.Is(err, provider.ErrNotFound) {
			return c.String(http.StatusNotFound, "Not found")
		}
		if err != nil {
			slog.Error("failed to open object", "bucket", bucket, "path", objectPath, "error", err)
			return c.String(http.StatusInternalServerError, "Internal Server Error")
		}
		defer obj.Close()

		h := c.Response().Header()
		h.Set("Cache-Control", "public, max-age=60")
		if !obj.ModTime.IsZero() {
			h.Set(echo.HeaderLastModified, obj.ModTime.UTC().Format(http.TimeFormat))
		}
		contentType := obj.ContentType
		if contentType == "" {
			contentType = echo.MIMEOctetStream
		}
		return c.Stream(http.StatusOK, contentType, obj)
	}
}
