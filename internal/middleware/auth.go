package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/01moynul/agritech-golang/internal/auth"
	"github.com/01moynul/agritech-golang/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	HeaderSessionID = "X-Session-ID"

	ctxUserID  = "userID"
	ctxSession = "session"
)

// SessionGetter resolves a session id.
type SessionGetter interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware resolves the caller's session from the X-Session-ID header
// or from a bearer token, and stores it on the context.
func AuthMiddleware(sessions SessionGetter, tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Find the session id ---
		sessionID := strings.TrimSpace(c.GetHeader(HeaderSessionID))
		var claims *auth.Claims
		if sessionID == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session header required"})
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
				return
			}

			var err error
			claims, err = tokens.ValidateToken(parts[1])
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			sessionID = claims.SessionID
		}

		// 2. --- Load the session ---
		sess, err := sessions.Get(c.Request.Context(), sessionID)
		if errors.Is(err, session.ErrSessionNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}
		if err != nil {
			log.Printf("Session lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Session store unavailable"})
			return
		}
		if claims != nil && claims.UserID != sess.UserID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 3. --- Success ---
		c.Set(ctxUserID, sess.UserID)
		c.Set(ctxSession, sess)
		c.Next()
	}
}

// UserID returns the authenticated user's id, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Session returns the authenticated session, or nil outside AuthMiddleware.
func Session(c *gin.Context) *session.Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
