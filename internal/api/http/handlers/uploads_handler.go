package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/SaschaHYR/G-Copro-sub000/internal/auth"
	"github.com/SaschaHYR/G-Copro-sub000/internal/storage"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

// UploadsHandler accepts attachment uploads and returns public URLs.
type UploadsHandler struct {
	uploader storage.Uploader
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(uploader storage.Uploader) *UploadsHandler {
	return &UploadsHandler{uploader: uploader}
}

// Upload POST /uploads (multipart field "file").
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable file", nil)
	}
	defer f.Close()

	url, err := h.uploader.Save(c.UserContext(), header.Filename, f)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"url": url}})
}
