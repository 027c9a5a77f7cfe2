package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pankaj085/lotuslynx/internal/domain"
	"github.com/pankaj085/lotuslynx/internal/service"
)

const currentUserKey = "currentUser"

// Auth resolves bearer tokens into accounts and attaches them to the
// request context.
type Auth struct {
	AuthService *service.AuthService
	Logger      *zap.Logger
}

// RequireUser ensures the request carries a valid access token for an
// enabled account.
func (m *Auth) RequireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Authorization header required."})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Bearer token required."})
		return
	}

	user, err := m.AuthService.ResolveActive(c.Request.Context(), parts[1])
	if err != nil {
		svcErr, ok := err.(*service.Error)
		if !ok {
			// Backend failures are not the client's fault and must not
			// read as a rejected token.
			m.log().Error("resolve bearer token failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Internal server error."})
			return
		}
		c.AbortWithStatusJSON(svcErr.Status, gin.H{"error": svcErr.Code, "error_description": svcErr.Description})
		return
	}

	c.Set(currentUserKey, user)
	c.Next()
}

func (m *Auth) log() *zap.Logger {
	if m != nil && m.Logger != nil {
		return m.Logger
	}
	return zap.L()
}

// CurrentUser returns the account attached by RequireUser.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	value, ok := c.Get(currentUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := value.(domain.User)
	return user, ok
}
