package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/photoshare/internal/pkg/errors"
	"github.com/xxxsen/photoshare/internal/pkg/jwt"
	"github.com/xxxsen/photoshare/internal/pkg/response"
)

const (
	ContextUserEmailKey = "user_email"
	bearerPrefix        = "Bearer "
)

// JWTAuth admits requests carrying a valid "Bearer <token>" header and
// stores the token subject under ContextUserEmailKey.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			response.Fail(c, http.StatusUnauthorized, appErr.MsgMissingToken)
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		claims, err := jwt.ParseToken(token, secret)
		if err != nil {
			logutil.GetLogger(c.Request.Context()).Debug("reject token", zap.Error(err))
			response.Fail(c, http.StatusUnauthorized, appErr.MsgInvalidToken)
			c.Abort()
			return
		}
		c.Set(ContextUserEmailKey, claims.Email)
		c.Next()
	}
}

func UserEmail(c *gin.Context) string {
	value, _ := c.Get(ContextUserEmailKey)
	email, _ := value.(string)
	return email
}
