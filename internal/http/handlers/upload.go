package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/apperr"
)

type ImageStore interface {
	PutImage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
}

type UploadHandler struct {
	images   ImageStore
	maxBytes int64
	logger   *slog.Logger
}

func NewUploadHandler(images ImageStore, maxBytes int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{images: images, maxBytes: maxBytes, logger: logger}
}

// UploadImage stores the multipart "image" field and returns its URL. The
// content type is sniffed from the bytes, not taken from the client.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "missing required upload")
		return
	}
	if file.Size <= 0 {
		badRequest(c, "missing required upload")
		return
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		badRequest(c, "image is too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		badRequest(c, "invalid upload")
		return
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		badRequest(c, "invalid upload")
		return
	}
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		badRequest(c, "upload must be an image")
		return
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		respondError(c, h.logger, apperr.Upstream("rewind upload", err))
		return
	}

	url, err := h.images.PutImage(c.Request.Context(), src, file.Size, contentType)
	if err != nil {
		respondError(c, h.logger, apperr.Upstream("store image", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "image uploaded", "url": url})
}
