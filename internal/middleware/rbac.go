// Package middleware (rbac.go) implements role-based authorization middleware.
//
// The role is read from the database-backed context set by AuthMiddleware, not
// from the JWT claims. This is a deliberate design choice: when an admin
// demotes a user to staff, the change takes effect on the user's next request
// without needing to invalidate or reissue their token.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole checks that the authenticated user holds the given role.
// Must be registered after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(ContextRoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		userRole, ok := roleVal.(string)
		if !ok || userRole != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		c.Next()
	}
}
