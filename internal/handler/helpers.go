package handler

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/photoshare/internal/middleware"
	"github.com/xxxsen/photoshare/internal/pkg/errcode"
	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
	"github.com/xxxsen/photoshare/internal/pkg/response"
)

var errEmptyBody = errors.New("request body is empty")

// handleError is the single conversion point from service errors to HTTP.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	kind := appErr.KindOf(err)
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	fields := []zap.Field{
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("kind", kind.String()),
		zap.Error(err),
	}
	if email := middleware.UserEmail(c); email != "" {
		fields = append(fields, zap.String("email", email))
	}
	logger := logutil.GetLogger(c.Request.Context())
	if kind == errcode.KindInfrastructure {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}
	response.Fail(c, kind.HTTPStatus(), err.Error())
}

// readJSONBody distinguishes an absent body from an unparsable one.
func readJSONBody(c *gin.Context, dst interface{}) (empty bool, err error) {
	raw, err := c.GetRawData()
	if err != nil {
		return false, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return true, nil
	}
	return false, json.Unmarshal(raw, dst)
}
