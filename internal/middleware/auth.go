package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/auth"
	"github.com/cinereview/backend/internal/models"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware resolves the bearer token into the caller's id and role.
func AuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not exactly role.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireRole(Identity(c), role); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": apperrors.Message(err)})
			return
		}
		c.Next()
	}
}

// Identity returns the caller set by AuthMiddleware.
func Identity(c *gin.Context) auth.Identity {
	id := auth.Identity{}
	if v, ok := c.Get(ContextUserID); ok {
		id.UserID, _ = v.(string)
	}
	if v, ok := c.Get(ContextRole); ok {
		id.Role, _ = v.(models.Role)
	}
	return id
}
