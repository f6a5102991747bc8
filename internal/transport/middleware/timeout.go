package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout caps every request's context. Directory queries and email
// fan-out inherit the deadline through c.Request.Context().
func Timeout(seconds int) gin.HandlerFunc {
	timeout := time.Duration(seconds) * time.Second

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
