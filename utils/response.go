package utils

import (
	"github.com/gin-gonic/gin"
)

// MessageHeader carries the human readable outcome of every JSON response
const MessageHeader = "X-Message"

// JSONResponse sends data as the response body and the message in MessageHeader.
// A nil data sends the status with an empty body.
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.Header(MessageHeader, message)
	if data == nil {
		c.Status(status)
		return
	}
	c.JSON(status, data)
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.Header(MessageHeader, message)
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// AbortWithError sends a structured error response and stops the handler chain
func AbortWithError(c *gin.Context, status int, err error, message string) {
	c.Header(MessageHeader, message)
	c.AbortWithStatusJSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}
