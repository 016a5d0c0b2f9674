package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/models"
)

const sessionKey = "session"

// Session is the acting admin for the current request.
type Session struct {
	UserID    string
	Username  string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// SessionFrom returns the session set by AuthMiddleware.
func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

// SetSession stores s on the request. Handlers under AuthMiddleware never
// need to call it.
func SetSession(c *gin.Context, s Session) {
	c.Set(sessionKey, s)
	c.Set("user_id", s.UserID)
	c.Set("role", s.Role)
}

// AuthMiddleware requires a valid, unrevoked admin bearer token.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(header[len("bearer "):])

		claims, err := cfg.Tokens.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		revoked, err := cfg.Revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			cfg.Logger().Errorw("revocation check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session check unavailable"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session has been logged out"})
			return
		}

		if claims.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied. Only admins can log in."})
			return
		}

		SetSession(c, Session{
			UserID:    claims.Subject,
			Username:  claims.Username,
			Role:      claims.Role,
			TokenID:   claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		})
		c.Next()
	}
}
