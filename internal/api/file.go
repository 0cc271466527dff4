package api

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/kanban/internal/middleware"
	"github.com/lalith-99/kanban/internal/service"
	"go.uber.org/zap"
)

// MaxUploadSize caps a single attachment.
const MaxUploadSize = 10 << 20

type FileHandler struct {
	svc    *service.Services
	logger *zap.Logger
}

func NewFileHandler(svc *service.Services, logger *zap.Logger) *FileHandler {
	return &FileHandler{svc: svc, logger: logger}
}

// List handles GET /v1/cards/:id/files
func (h *FileHandler) List(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	files, err := h.svc.Files.List(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Upload handles POST /v1/cards/:id/files as multipart form data with the
// attachment in the "file" field.
func (h *FileHandler) Upload(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing file"})
		return
	}
	if header.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "file too large"})
		return
	}
	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable file"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unreadable file"})
		return
	}

	f, err := h.svc.Files.Upload(c.Request.Context(), middleware.GetUserID(c), id, header.Filename, data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// Download handles GET /v1/files/:id
func (h *FileHandler) Download(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	f, rc, err := h.svc.Files.Open(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(f.FileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(f.FileName))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Warn("file download interrupted", zap.Int64("file_id", id), zap.Error(err))
	}
}

// Delete handles DELETE /v1/files/:id
func (h *FileHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Files.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
