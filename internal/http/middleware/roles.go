package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pankaj085/lotuslynx/internal/domain"
)

// RequireRole gates a route to accounts at or above the given role. It
// must run after RequireUser.
func RequireRole(min domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Could not validate credentials."})
			return
		}
		if user.Role.Rank() < min.Rank() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "error_description": "Not enough permissions."})
			return
		}
		c.Next()
	}
}
