// auth.go implements registration, login, and session-adjacent endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/apperr"
	"github.com/corebiz/corebiz/internal/audit"
	"github.com/corebiz/corebiz/internal/auth"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
	"github.com/corebiz/corebiz/internal/telemetry"
)

// AuthHandlers handles registration, login, and password management.
type AuthHandlers struct {
	companyRepo *repositories.CompanyRepository
	userRepo    *repositories.UserRepository
	recorder    *audit.Recorder
	tokenTTL    time.Duration
}

// NewAuthHandlers creates an AuthHandlers instance.
func NewAuthHandlers(companyRepo *repositories.CompanyRepository, userRepo *repositories.UserRepository, recorder *audit.Recorder, tokenTTL time.Duration) *AuthHandlers {
	if tokenTTL <= 0 {
		tokenTTL = auth.DefaultTokenTTL
	}
	return &AuthHandlers{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		recorder:    recorder,
		tokenTTL:    tokenTTL,
	}
}

// RegisterRequest is the self-service signup payload: a new company plus its
// first admin user, created atomically.
type RegisterRequest struct {
	CompanyName  string `json:"company_name" binding:"required"`
	CompanyEmail string `json:"company_email" binding:"required,email"`
	FullName     string `json:"full_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
}

// RegisterHandler creates a company and its first admin user in a single
// transaction. The company email unique constraint is the authoritative
// duplicate guard; a violation surfaces as 409.
// POST /api/auth/register
func (h *AuthHandlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
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

		company := &models.Company{
			Name:   req.CompanyName,
			Email:  req.CompanyEmail,
			Plan:   models.PlanFree,
			Status: models.CompanyActive,
		}
		admin := &models.User{
			Email:        req.Email,
			PasswordHash: hash,
			FullName:     req.FullName,
			Role:         models.RoleAdmin,
			Status:       models.UserActive,
		}

		if err := h.companyRepo.RegisterCompanyAndAdmin(c.Request.Context(), company, admin); err != nil {
			if repositories.IsUniqueViolation(err) {
				renderError(c, apperr.Conflict("a company with this email already exists"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		telemetry.RegistrationsTotal.Inc()

		h.recorder.Record(audit.Entry{
			CompanyID:  company.ID,
			UserID:     &admin.ID,
			Action:     models.AuditRegister,
			EntityType: models.EntityCompany,
			EntityID:   &company.ID,
			IPAddress:  c.ClientIP(),
			Details:    map[string]interface{}{"company_name": company.Name},
		})

		token, err := auth.GenerateJWT(admin.ID, company.ID, admin.Role, h.tokenTTL)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"company": company,
			"user":    admin,
			"token":   token,
		})
	}
}

// LoginRequest is the credential payload for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler verifies credentials and issues a JWT.
//
// Email uniqueness is per company, so one address may match users in several
// tenants. All candidates are fetched and the password is checked against
// each; the first verifying match wins. Unknown email and wrong password
// produce the same generic 401 so the two cases are indistinguishable to a
// caller; a deactivated user or non-active company is a distinct 403.
// POST /api/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		candidates, err := h.userRepo.GetUsersWithCompanyByEmail(c.Request.Context(), req.Email)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		var user *models.UserWithCompany
		for _, candidate := range candidates {
			if auth.CheckPassword(candidate.PasswordHash, req.Password) {
				user = candidate
				break
			}
		}

		if user == nil {
			telemetry.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			renderError(c, apperr.Authentication("invalid credentials"))
			return
		}

		if !user.IsActive() {
			telemetry.LoginAttemptsTotal.WithLabelValues("inactive_user").Inc()
			renderError(c, apperr.Authorization("user account is deactivated"))
			return
		}

		if user.CompanyStatus != models.CompanyActive {
			telemetry.LoginAttemptsTotal.WithLabelValues("inactive_company").Inc()
			renderError(c, apperr.Authorization("company account is not active"))
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.CompanyID, user.Role, h.tokenTTL)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		telemetry.LoginAttemptsTotal.WithLabelValues("success").Inc()

		h.recorder.Record(audit.Entry{
			CompanyID: user.CompanyID,
			UserID:    &user.ID,
			Action:    models.AuditLogin,
			IPAddress: c.ClientIP(),
		})

		c.JSON(http.StatusOK, gin.H{
			"user":  user,
			"token": token,
		})
	}
}

// MeHandler returns the authenticated user's profile joined with their
// company's display fields.
// GET /api/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			renderError(c, apperr.Authentication("not authenticated"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// LogoutHandler records the logout event. Tokens are stateless, so there is
// nothing to revoke server-side; the client discards its token.
// POST /api/auth/logout
func (h *AuthHandlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.recorder.Record(audit.Entry{
			CompanyID: companyID(c),
			UserID:    currentUserIDPtr(c),
			Action:    models.AuditLogout,
			IPAddress: c.ClientIP(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// ChangePasswordRequest carries the current and replacement password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePasswordHandler verifies the current password before storing a new
// hash. The new password must satisfy the minimum-length policy.
// POST /api/auth/change-password
func (h *AuthHandlers) ChangePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		user := currentUser(c)
		if user == nil {
			renderError(c, apperr.Authentication("not authenticated"))
			return
		}

		if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
			renderError(c, apperr.Authentication("current password is incorrect"))
			return
		}

		if err := auth.ValidatePasswordPolicy(req.NewPassword); err != nil {
			renderError(c, apperr.Validation(err.Error()))
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		if err := h.userRepo.UpdateUserPassword(c.Request.Context(), user.ID, hash); err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  user.CompanyID,
			UserID:     &user.ID,
			Action:     models.AuditChangePassword,
			EntityType: models.EntityUser,
			EntityID:   &user.ID,
			IPAddress:  c.ClientIP(),
		})

		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}
