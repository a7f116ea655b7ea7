// customers.go implements tenant-scoped customer CRUD. Customers are never
// deleted, only switched between active and inactive.
package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/apperr"
	"github.com/corebiz/corebiz/internal/audit"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
)

// CustomerHandlers handles customer endpoints.
type CustomerHandlers struct {
	customerRepo *repositories.CustomerRepository
	saleRepo     *repositories.SaleRepository
	recorder     *audit.Recorder
}

// NewCustomerHandlers creates a CustomerHandlers instance.
func NewCustomerHandlers(customerRepo *repositories.CustomerRepository, saleRepo *repositories.SaleRepository, recorder *audit.Recorder) *CustomerHandlers {
	return &CustomerHandlers{customerRepo: customerRepo, saleRepo: saleRepo, recorder: recorder}
}

// ListCustomersHandler lists the company's customers with optional status and
// name/email search filters.
// GET /api/customers?page=1&per_page=20&status=active&search=smith
func (h *CustomerHandlers) ListCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, page := parsePagination(c, 20, 100)

		var filters repositories.CustomerFilters
		if status := c.Query("status"); status != "" {
			if !models.ValidCustomerStatus(status) {
				renderError(c, apperr.Validation("status must be active or inactive"))
				return
			}
			filters.Status = &status
		}
		if search := c.Query("search"); search != "" {
			filters.Search = &search
		}

		customers, total, err := h.customerRepo.ListCustomers(c.Request.Context(), companyID(c), filters, limit, offset)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"customers":  customers,
			"pagination": pagination(page, limit, total),
		})
	}
}

// GetCustomerHandler retrieves one customer of the company.
// GET /api/customers/:id
func (h *CustomerHandlers) GetCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		customer, err := h.customerRepo.GetCustomerByID(c.Request.Context(), companyID(c), id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		if customer == nil {
			renderError(c, apperr.NotFound("customer not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer": customer})
	}
}

// CustomerRequest is the payload for creating or updating a customer.
type CustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// CreateCustomerHandler creates a customer in the company.
// POST /api/customers
func (h *CustomerHandlers) CreateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		customer := &models.Customer{
			CompanyID: companyID(c),
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
			Status:    models.CustomerActive,
		}

		if err := h.customerRepo.CreateCustomer(c.Request.Context(), customer); err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  customer.CompanyID,
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditCreate,
			EntityType: models.EntityCustomer,
			EntityID:   &customer.ID,
			IPAddress:  c.ClientIP(),
			Details:    map[string]interface{}{"name": customer.Name},
		})

		c.JSON(http.StatusCreated, gin.H{"customer": customer})
	}
}

// UpdateCustomerHandler updates a customer's profile fields.
// PUT /api/customers/:id
func (h *CustomerHandlers) UpdateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req CustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		customer := &models.Customer{
			ID:        id,
			CompanyID: companyID(c),
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
		}

		if err := h.customerRepo.UpdateCustomer(c.Request.Context(), customer); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				renderError(c, apperr.NotFound("customer not found"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  customer.CompanyID,
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditUpdate,
			EntityType: models.EntityCustomer,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
		})

		updated, err := h.customerRepo.GetCustomerByID(c.Request.Context(), customer.CompanyID, id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer": updated})
	}
}

// UpdateCustomerStatusRequest carries the target status.
type UpdateCustomerStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateCustomerStatusHandler switches a customer between active and
// inactive. Setting the current status again is a no-op write but is still
// audited.
// PUT /api/customers/:id/status
func (h *CustomerHandlers) UpdateCustomerStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req UpdateCustomerStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		if !models.ValidCustomerStatus(req.Status) {
			renderError(c, apperr.Validation("status must be active or inactive"))
			return
		}

		if err := h.customerRepo.UpdateCustomerStatus(c.Request.Context(), companyID(c), id, req.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				renderError(c, apperr.NotFound("customer not found"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  companyID(c),
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditUpdateStatus,
			EntityType: models.EntityCustomer,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
			Details:    map[string]interface{}{"status": req.Status},
		})

		c.JSON(http.StatusOK, gin.H{"message": "customer status updated"})
	}
}

// ListCustomerSalesHandler lists all sales for one customer of the company.
// A customer id owned by another tenant reads as absent.
// GET /api/customers/:id/sales
func (h *CustomerHandlers) ListCustomerSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		customer, err := h.customerRepo.GetCustomerByID(c.Request.Context(), companyID(c), id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		if customer == nil {
			renderError(c, apperr.NotFound("customer not found"))
			return
		}

		sales, err := h.saleRepo.ListSalesByCustomer(c.Request.Context(), companyID(c), id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"sales": sales})
	}
}
