package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/abjin/reward-closet/internal/domain"
	"github.com/abjin/reward-closet/internal/media"
)

// ImageStore persists uploaded images.
type ImageStore interface {
	Store(ctx context.Context, up media.Upload) (*media.Stored, error)
	Delete(ctx context.Context, path string) bool
}

// UploadHandler accepts image uploads.
type UploadHandler struct {
	images ImageStore
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(images ImageStore) *UploadHandler {
	return &UploadHandler{images: images}
}

// Upload handles POST /api/uploads with a multipart "file" field.
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return domain.NewValidationError("file", "file is required")
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if err := media.Validate(contentType, fh.Size); err != nil {
		return err
	}

	file, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	stored, err := h.images.Store(c.Request().Context(), media.Upload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, stored)
}

type deleteUploadRequest struct {
	Path string `json:"path" validate:"required,max=255"`
}

type deleteUploadResponse struct {
	Deleted bool `json:"deleted"`
}

// Delete handles DELETE /api/uploads. Removal is best effort: a storage
// failure is reported as deleted=false, never as an error status.
func (h *UploadHandler) Delete(c echo.Context) error {
	var req deleteUploadRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	dir, name := path.Split(path.Clean(req.Path))
	if dir != media.Folder+"/" || name == "" || strings.HasPrefix(name, ".") {
		return domain.NewValidationError("path", "path must name an uploaded image")
	}

	deleted := h.images.Delete(c.Request().Context(), dir+name)
	return c.JSON(http.StatusOK, deleteUploadResponse{Deleted: deleted})
}
