package response

import (
	"github.com/gin-gonic/gin"
)

// The API speaks the same JSON dialect as the original front-end expects:
// errors are always {"message": ...}, successes carry message plus payload
// fields at the top level ({message, token, user}, {users}, ...).

// JSON writes a success body.
func JSON(c *gin.Context, status int, body gin.H) {
	c.JSON(status, body)
}

// Message writes a body containing only a message.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// Error writes {"message": ...} and aborts the handler chain, so middleware
// failures short-circuit before the handler runs.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// ValidationError writes {"message": ..., "errors": {field: reason}}.
func ValidationError(c *gin.Context, status int, message string, details map[string]string) {
	if len(details) == 0 {
		Error(c, status, message)
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message, "errors": details})
}
