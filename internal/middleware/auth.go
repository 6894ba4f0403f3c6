package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/access"
	"github.com/careconnect/api/pkg/auth"
	apperrors "github.com/careconnect/api/pkg/errors"
)

const (
	ctxUserID = "userID"
	ctxRole   = "userRole"
	ctxEmail  = "userEmail"
)

// Auth validates the Bearer token and stores the caller's identity on the
// request context.
func Auth(tokens auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "authorization header must be a Bearer token")
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, model.Role(claims.Role))
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// RequireRole rejects callers whose role isn't in the allowed set. It runs
// after Auth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"status": "error",
			"error": gin.H{
				"kind":    apperrors.KindForbidden,
				"message": "insufficient role for this endpoint",
			},
		})
	}
}

// Actor returns the authenticated principal set by Auth. Zero-valued when the
// request is unauthenticated.
func Actor(c *gin.Context) access.Actor {
	actor := access.Actor{}
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			actor.UserID = id
		}
	}
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(model.Role); ok {
			actor.Role = role
		}
	}
	return actor
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status": "error",
		"error": gin.H{
			"kind":    apperrors.KindUnauthorized,
			"message": message,
		},
	})
}
