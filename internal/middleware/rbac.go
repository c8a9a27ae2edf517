package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edusmart-import-api/internal/models"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
	"github.com/noah-isme/edusmart-import-api/pkg/response"
)

// RequireRoles rejects requests whose claims carry none of the given roles.
// It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Access denied. No token provided."))
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Access denied. Admin only."))
			c.Abort()
			return
		}
		c.Next()
	}
}
