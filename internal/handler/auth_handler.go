package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/photoshare/internal/metrics"
	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
	"github.com/xxxsen/photoshare/internal/pkg/response"
	"github.com/xxxsen/photoshare/internal/service"
)

type AuthHandler struct {
	auth    *service.AuthService
	metrics *metrics.Metrics
}

func NewAuthHandler(auth *service.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{auth: auth, metrics: m}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type loginResponse struct {
	JWT  string    `json:"jwt"`
	User loginUser `json:"user"`
}

// Signup performs no shape validation: anything that is not JSON, including
// an empty body, is a server-side failure.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	empty, err := readJSONBody(c, &req)
	if err == nil && empty {
		err = errEmptyBody
	}
	if err != nil {
		h.metrics.ObserveAuth("signup", "error")
		handleError(c, appErr.Infrastructure(err))
		return
	}
	if err := h.auth.Signup(c.Request.Context(), req.Email, req.Password, req.Name); err != nil {
		h.metrics.ObserveAuth("signup", "error")
		handleError(c, err)
		return
	}
	h.metrics.ObserveAuth("signup", "ok")
	response.Success(c, response.Message{Message: appErr.MsgRegistered})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	empty, err := readJSONBody(c, &req)
	if err != nil {
		h.metrics.ObserveAuth("login", "rejected")
		handleError(c, appErr.ClientInput(appErr.MsgMalformedJSON))
		return
	}
	if empty {
		h.metrics.ObserveAuth("login", "rejected")
		handleError(c, appErr.ClientInput(appErr.MsgMissingBody))
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.ObserveAuth("login", appErr.KindOf(err).String())
		handleError(c, err)
		return
	}
	h.metrics.ObserveAuth("login", "ok")
	response.Success(c, loginResponse{
		JWT: token,
		User: loginUser{
			ID:    user.Email,
			Email: user.Email,
			Name:  user.Name,
		},
	})
}
