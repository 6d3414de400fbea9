package handler

import (
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/photoshare/internal/blobstore"
)

// BlobHandler serves the signed URLs of a blobstore.FileServer. It answers
// with bare status codes the way an object store would.
type BlobHandler struct {
	files blobstore.FileServer
}

func NewBlobHandler(files blobstore.FileServer) *BlobHandler {
	return &BlobHandler{files: files}
}

func (h *BlobHandler) Put(c *gin.Context) {
	key := c.Param("key")
	if err := h.files.Verify(http.MethodPut, key, c.GetHeader("Content-Type"), c.Query("token")); err != nil {
		c.Status(http.StatusForbidden)
		return
	}
	if c.Request.ContentLength > h.files.MaxObjectSize() {
		c.Status(http.StatusRequestEntityTooLarge)
		return
	}
	err := h.files.Save(c.Request.Context(), key, c.Request.Body)
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, blobstore.ErrObjectTooLarge):
		c.Status(http.StatusRequestEntityTooLarge)
	case errors.Is(err, blobstore.ErrInvalidKey):
		c.Status(http.StatusBadRequest)
	default:
		logutil.GetLogger(c.Request.Context()).Error("save blob failed", zap.String("key", key), zap.Error(err))
		c.Status(http.StatusInternalServerError)
	}
}

func (h *BlobHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if err := h.files.Verify(http.MethodGet, key, "", c.Query("token")); err != nil {
		c.Status(http.StatusForbidden)
		return
	}
	file, err := h.files.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusBadRequest)
		return
	}
	defer file.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	http.ServeContent(c.Writer, c.Request, key, time.Time{}, file)
}
