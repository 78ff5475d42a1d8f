package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/memtensor/userapi/pkg/users"
)

const (
	tokenCookieName = "token"
	identityKey     = "identity"
)

// extractToken takes the second word of the Authorization header when the
// header is present, otherwise the token cookie
func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) < 2 {
			return ""
		}
		return parts[1]
	}

	if cookie, err := c.Cookie(tokenCookieName); err == nil {
		return cookie
	}
	return ""
}

// authMiddleware rejects requests without a live session token
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := s.sessions.Authenticate(c.Request.Context(), extractToken(c))
		if err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(users.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// IdentityFrom returns the identity set by the auth middleware
func IdentityFrom(c *gin.Context) (*users.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*users.Identity)
	return identity, ok
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookieName, token, int(s.opts.CookieMaxAge.Seconds()), "/", "", s.opts.Production, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookieName, "", -1, "/", "", s.opts.Production, true)
}
