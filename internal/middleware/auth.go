package middleware

import (
	"net/http"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"

	"github.com/gin-gonic/gin"
)

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentActor(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "login or a bearer token is required",
			})
			return
		}
		c.Next()
	}
}

// RequireCapability rejects callers whose role does not grant the
// capability behind op.
func RequireCapability(op authz.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if err := actor.Authorize(op); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": err.Error(),
			})
			return
		}
		c.Next()
	}
}
