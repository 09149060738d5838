package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fourinarow/engine/internal/service/game"
	"github.com/fourinarow/engine/pkg/auth"
	"github.com/fourinarow/engine/pkg/httputil"
)

const sessionKey = "game_session"

// SessionAuth resolves the session token (cookie or Authorization header) to a
// live GameSession and stores it on the context.
func SessionAuth(tokens *auth.TokenManager, sessions *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := httputil.GetTokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "Missing session token"})
			return
		}

		claims, err := tokens.ValidateSessionToken(tokenString)
		if err != nil {
			httputil.ClearSessionCookie(c.Writer)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "Invalid token"})
			return
		}

		session, ok := sessions.GetSession(claims.SessionID)
		if !ok {
			httputil.ClearSessionCookie(c.Writer)
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"code": "session_not_found", "message": "Session expired or removed"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// CurrentSession returns the session SessionAuth attached.
func CurrentSession(c *gin.Context) (*game.GameSession, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*game.GameSession)
	return session, ok
}
