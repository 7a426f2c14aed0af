package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookieName holds the upstream bearer token. The gateway never
// inspects the token's contents; it only forwards it.
const SessionCookieName = "session_token"

const sessionMaxAge = 7 * 24 * 3600 // seconds

const ctxTokenKey = "session_bearer"

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		SessionCookieName, // name
		token,             // value
		sessionMaxAge,     // maxAge (7 days in seconds)
		"/",               // path
		"",                // domain (empty for current domain)
		s.cfg.Production,  // secure only behind HTTPS
		true,              // httpOnly
	)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", s.cfg.Production, true)
}

func sessionToken(c *gin.Context) string {
	v, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

// RequireSession rejects requests without a session cookie before any
// upstream call is made.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			c.Abort()
			return
		}
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	v, ok := c.Get(ctxTokenKey)
	if !ok {
		return sessionToken(c)
	}
	token, _ := v.(string)
	return token
}
