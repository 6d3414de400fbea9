package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/photoshare/internal/metrics"
	"github.com/xxxsen/photoshare/internal/middleware"
	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
	"github.com/xxxsen/photoshare/internal/pkg/response"
	"github.com/xxxsen/photoshare/internal/service"
)

type UploadHandler struct {
	profiles *service.ProfileService
	metrics  *metrics.Metrics
}

func NewUploadHandler(profiles *service.ProfileService, m *metrics.Metrics) *UploadHandler {
	return &UploadHandler{profiles: profiles, metrics: m}
}

type uploadRequest struct {
	ProfileImageFilename    string `json:"profileImageFilename"`
	ProfileImageContentType string `json:"profileImageContentType"`
}

type uploadResponse struct {
	Message               string `json:"message"`
	ProfileImageUploadURL string `json:"profileImageUploadURL"`
	SignedProfileImageURL string `json:"signedProfileImageURL,omitempty"`
}

// Upload runs behind JWTAuth; the token subject is the only identity used.
func (h *UploadHandler) Upload(c *gin.Context) {
	var req uploadRequest
	if _, err := readJSONBody(c, &req); err != nil {
		handleError(c, appErr.ClientInput(appErr.MsgMalformedJSON))
		return
	}
	ticket, err := h.profiles.RequestUpload(c.Request.Context(), middleware.UserEmail(c), req.ProfileImageFilename, req.ProfileImageContentType)
	if err != nil {
		handleError(c, err)
		return
	}
	h.metrics.ObserveUploadURL()
	response.Success(c, uploadResponse{
		Message:               appErr.MsgProfileImageUpdated,
		ProfileImageUploadURL: ticket.UploadURL,
		SignedProfileImageURL: ticket.ReadURL,
	})
}
