package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"group-chat-service/internal/storage"
)

const maxUploadBytes = 10 << 20

// UploadHandler accepts image uploads and stores them in object storage.
type UploadHandler struct {
	uploader storage.Uploader
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(uploader storage.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload handles POST /api/upload (multipart, field "file"). Only images are
// accepted; the stored object's URL is returned for use as a message's
// imageUrl.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads not configured"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only image uploads are allowed"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	ext := filepath.Ext(header.Filename)
	key := "chat-images/" + uuid.NewString() + ext

	url, err := h.uploader.Upload(c.Request.Context(), key, contentType, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
