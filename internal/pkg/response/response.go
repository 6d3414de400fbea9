package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data"`
}

type Message struct {
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Fail writes the failure envelope. The message is duplicated under
// data.message for clients written against the upload handler's shape.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Error: message, Data: Message{Message: message}})
}
