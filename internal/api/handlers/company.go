// company.go implements handlers for the authenticated user's own company.
// There is no cross-company surface at all: the company id always comes from
// the auth context, never from the URL.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/apperr"
	"github.com/corebiz/corebiz/internal/audit"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
)

// CompanyHandlers handles company profile endpoints.
type CompanyHandlers struct {
	companyRepo *repositories.CompanyRepository
	recorder    *audit.Recorder
}

// NewCompanyHandlers creates a CompanyHandlers instance.
func NewCompanyHandlers(companyRepo *repositories.CompanyRepository, recorder *audit.Recorder) *CompanyHandlers {
	return &CompanyHandlers{companyRepo: companyRepo, recorder: recorder}
}

// GetCompanyHandler returns the authenticated user's company.
// GET /api/company
func (h *CompanyHandlers) GetCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		company, err := h.companyRepo.GetCompanyByID(c.Request.Context(), companyID(c))
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		if company == nil {
			renderError(c, apperr.NotFound("company not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"company": company})
	}
}

// UpdateCompanyRequest carries the mutable company profile fields. Email,
// plan, and status are not client-mutable through this endpoint.
type UpdateCompanyRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// UpdateCompanyHandler updates the company profile. Admin only.
// PUT /api/company
func (h *CompanyHandlers) UpdateCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateCompanyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		id := companyID(c)
		company := &models.Company{
			ID:      id,
			Name:    req.Name,
			Phone:   req.Phone,
			Address: req.Address,
		}

		if err := h.companyRepo.UpdateCompany(c.Request.Context(), company); err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		updated, err := h.companyRepo.GetCompanyByID(c.Request.Context(), id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  id,
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditUpdate,
			EntityType: models.EntityCompany,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
		})

		c.JSON(http.StatusOK, gin.H{"company": updated})
	}
}

// DeactivateCompanyHandler cancels the company account. The row is kept; all
// subsequent requests from the company's users fail at the auth middleware's
// company liveness check. Admin only.
// POST /api/company/deactivate
func (h *CompanyHandlers) DeactivateCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := companyID(c)

		if err := h.companyRepo.UpdateCompanyStatus(c.Request.Context(), id, models.CompanyCancelled); err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  id,
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditDeactivate,
			EntityType: models.EntityCompany,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
		})

		c.JSON(http.StatusOK, gin.H{"message": "company deactivated"})
	}
}
