// Package middleware (auth.go) implements JWT authentication middleware.
//
// Middleware ordering in router.go:
//
//	Recovery → RequestID → Metrics → SecurityHeaders → RateLimit → Auth → RBAC → handler
//
// The auth middleware re-fetches the user (joined with their company) from the
// database on every request rather than trusting the JWT claims alone. A token
// is a 7-day credential; deactivating a user or suspending a company must take
// effect immediately, not when the token expires. The claims are only used to
// locate the user row — role and tenant come from the database snapshot.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/corebiz/corebiz/internal/auth"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
)

// Context keys set by AuthMiddleware for downstream middleware and handlers.
const (
	ContextUserKey      = "user"
	ContextUserIDKey    = "user_id"
	ContextCompanyIDKey = "company_id"
	ContextRoleKey      = "role"
)

// AuthMiddleware validates the Bearer token and loads the authenticated user
// into the request context. Requests fail with:
//
//	401 — missing/malformed header, invalid signature, expired token,
//	      or the user no longer exists
//	403 — the user or their company has been deactivated
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must use Bearer scheme",
			})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(tokenString)
		if err != nil {
			// Expired tokens get a distinct message so clients know to
			// re-authenticate rather than report a bug.
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		user, err := userRepo.GetUserWithCompanyByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to verify user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		if !user.IsActive() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "User account is deactivated",
			})
			return
		}

		if user.CompanyStatus != models.CompanyActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Company account is not active",
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextCompanyIDKey, user.CompanyID)
		c.Set(ContextRoleKey, user.Role)

		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by AuthMiddleware, or nil
// when the request is unauthenticated (e.g. on public routes).
func CurrentUser(c *gin.Context) *models.UserWithCompany {
	val, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := val.(*models.UserWithCompany)
	if !ok {
		return nil
	}
	return user
}
