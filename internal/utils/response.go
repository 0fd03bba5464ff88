package utils

import "github.com/gin-gonic/gin"

// Response is the envelope every API answer uses.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"` // null when there is nothing to return
}

// NewSuccessResponse defaults status to 200.
func NewSuccessResponse(message string, data interface{}) Response {
	return Response{
		Status:  200,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(status int, message string) Response {
	return Response{
		Status:  status,
		Message: message,
		Data:    nil,
	}
}

// Respond writes data with the given HTTP status mirrored in the envelope.
func Respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Status: status, Message: message, Data: data})
}

// Fail writes an error envelope and aborts the handler chain.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(status, message))
}
