// users.go implements user management endpoints. All routes are admin-only
// except GetUserHandler, which also lets staff fetch their own record.
package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/apperr"
	"github.com/corebiz/corebiz/internal/audit"
	"github.com/corebiz/corebiz/internal/auth"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
)

// UserHandlers handles user management endpoints.
type UserHandlers struct {
	userRepo *repositories.UserRepository
	recorder *audit.Recorder
}

// NewUserHandlers creates a UserHandlers instance.
func NewUserHandlers(userRepo *repositories.UserRepository, recorder *audit.Recorder) *UserHandlers {
	return &UserHandlers{userRepo: userRepo, recorder: recorder}
}

// ListUsersHandler lists all users of the company.
// GET /api/users
func (h *UserHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.userRepo.ListUsers(c.Request.Context(), companyID(c))
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// GetUserHandler retrieves one user of the company. Staff may only fetch
// themselves; ids of other tenants' users read as absent.
// GET /api/users/:id
func (h *UserHandlers) GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		requester := currentUser(c)
		if requester != nil && !requester.IsAdmin() && requester.ID != id {
			renderError(c, apperr.Authorization("insufficient permissions"))
			return
		}

		user, err := h.userRepo.GetUserByID(c.Request.Context(), companyID(c), id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		if user == nil {
			renderError(c, apperr.NotFound("user not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// CreateUserRequest is the payload for creating a staff or admin user.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// CreateUserHandler creates a user inside the admin's company. Email
// uniqueness is per company and enforced by the DB constraint.
// POST /api/users
func (h *UserHandlers) CreateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		if !models.ValidRole(req.Role) {
			renderError(c, apperr.Validation("role must be admin or staff"))
			return
		}

		if err := auth.ValidatePasswordPolicy(req.Password); err != nil {
			renderError(c, apperr.Validation(err.Error()))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		user := &models.User{
			CompanyID:    companyID(c),
			Email:        req.Email,
			PasswordHash: hash,
			FullName:     req.FullName,
			Role:         req.Role,
			Status:       models.UserActive,
		}

		if err := h.userRepo.CreateUser(c.Request.Context(), user); err != nil {
			if repositories.IsUniqueViolation(err) {
				renderError(c, apperr.Conflict("a user with this email already exists"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  user.CompanyID,
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditCreate,
			EntityType: models.EntityUser,
			EntityID:   &user.ID,
			IPAddress:  c.ClientIP(),
			Details:    map[string]interface{}{"email": user.Email, "role": user.Role},
		})

		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}

// UpdateUserRequest carries the mutable user fields. Password changes go
// through the dedicated change-password endpoint.
type UpdateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateUserHandler updates a user's profile and role.
// PUT /api/users/:id
func (h *UserHandlers) UpdateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		if !models.ValidRole(req.Role) {
			renderError(c, apperr.Validation("role must be admin or staff"))
			return
		}

		user := &models.User{
			ID:        id,
			CompanyID: companyID(c),
			Email:     req.Email,
			FullName:  req.FullName,
			Role:      req.Role,
		}

		if err := h.userRepo.UpdateUser(c.Request.Context(), user); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				renderError(c, apperr.NotFound("user not found"))
				return
			}
			if repositories.IsUniqueViolation(err) {
				renderError(c, apperr.Conflict("a user with this email already exists"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  user.CompanyID,
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditUpdate,
			EntityType: models.EntityUser,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
		})

		updated, err := h.userRepo.GetUserByID(c.Request.Context(), user.CompanyID, id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": updated})
	}
}

// ActivateUserHandler reactivates a deactivated user.
// POST /api/users/:id/activate
func (h *UserHandlers) ActivateUserHandler() gin.HandlerFunc {
	return h.setUserStatus(models.UserActive, models.AuditActivate)
}

// DeactivateUserHandler deactivates a user. Deactivation takes effect on the
// target's next request via the auth middleware's liveness re-check.
// Self-deactivation is rejected before any write so an admin cannot lock
// themselves out mid-session.
// POST /api/users/:id/deactivate
func (h *UserHandlers) DeactivateUserHandler() gin.HandlerFunc {
	return h.setUserStatus(models.UserInactive, models.AuditDeactivate)
}

func (h *UserHandlers) setUserStatus(status, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		if status == models.UserInactive && id == currentUserID(c) {
			renderError(c, apperr.Validation("cannot deactivate yourself"))
			return
		}

		if err := h.userRepo.UpdateUserStatus(c.Request.Context(), companyID(c), id, status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				renderError(c, apperr.NotFound("user not found"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  companyID(c),
			UserID:     currentUserIDPtr(c),
			Action:     action,
			EntityType: models.EntityUser,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
		})

		msg := "user activated"
		if status == models.UserInactive {
			msg = "user deactivated"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}
