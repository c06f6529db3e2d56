package middleware

import (
	"net/http"

	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireCategory lets through only users of the given category. It must run
// after AuthMiddleware.
func RequireCategory(category models.UserCategory) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := Session(c)
		if sess == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session not found in context (AuthMiddleware must run first)"})
			return
		}
		if sess.Category != category {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: You are not a " + string(category)})
			return
		}
		c.Next()
	}
}
