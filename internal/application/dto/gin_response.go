package dto

import (
	"github.com/gin-gonic/gin"
)

// SendSuccess writes data in a success envelope.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, OK(data))
}

// SendError writes err in an error envelope with its mapped status.
func SendError(c *gin.Context, err error) {
	status, body := FromError(err)
	c.JSON(status, body)
}

// AbortWithError writes err and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	status, body := FromError(err)
	c.AbortWithStatusJSON(status, body)
}

// SetHeaders copies headers onto the response.
func SetHeaders(c *gin.Context, headers map[string]string) {
	for k, v := range headers {
		c.Header(k, v)
	}
}

// AbortWithRejection writes the throttling response and stops the handler chain.
func AbortWithRejection(c *gin.Context, rejection RateLimitRejection) {
	SetHeaders(c, rejection.Headers)
	c.AbortWithStatusJSON(rejection.Status, rejection.Body)
}
