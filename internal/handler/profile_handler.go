package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/photoshare/internal/middleware"
	"github.com/xxxsen/photoshare/internal/pkg/response"
	"github.com/xxxsen/photoshare/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Profile(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}
