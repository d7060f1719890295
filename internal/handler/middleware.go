package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// RequireUser rejects requests without the identity header set by the
// fronting auth layer and stores the user id on the context.
func RequireUser(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(header))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
