// sales.go implements tenant-scoped sale endpoints, including the CSV export.
package handlers

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/apperr"
	"github.com/corebiz/corebiz/internal/audit"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
)

// SaleHandlers handles sale endpoints.
type SaleHandlers struct {
	saleRepo     *repositories.SaleRepository
	customerRepo *repositories.CustomerRepository
	recorder     *audit.Recorder
}

// NewSaleHandlers creates a SaleHandlers instance.
func NewSaleHandlers(saleRepo *repositories.SaleRepository, customerRepo *repositories.CustomerRepository, recorder *audit.Recorder) *SaleHandlers {
	return &SaleHandlers{saleRepo: saleRepo, customerRepo: customerRepo, recorder: recorder}
}

// parseSaleFilters reads the shared list/export query parameters. Dates are
// accepted as RFC 3339 or plain YYYY-MM-DD.
func parseSaleFilters(c *gin.Context) (repositories.SaleFilters, error) {
	var filters repositories.SaleFilters

	if status := c.Query("status"); status != "" {
		if !models.ValidSaleStatus(status) {
			return filters, apperr.Validation("status must be pending, paid, or cancelled")
		}
		filters.Status = &status
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return filters, apperr.Validation("customer_id must be a positive integer")
		}
		filters.CustomerID = &id
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filters, apperr.Validation("start_date must be an RFC 3339 or YYYY-MM-DD date")
		}
		filters.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filters, apperr.Validation("end_date must be an RFC 3339 or YYYY-MM-DD date")
		}
		filters.EndDate = &t
	}

	return filters, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// ListSalesHandler lists the company's sales with optional filters.
// GET /api/sales?page=1&per_page=20&status=paid&customer_id=5&start_date=&end_date=
func (h *SaleHandlers) ListSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, page := parsePagination(c, 20, 100)

		filters, err := parseSaleFilters(c)
		if err != nil {
			renderError(c, err)
			return
		}

		sales, total, err := h.saleRepo.ListSales(c.Request.Context(), companyID(c), filters, limit, offset)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"sales":      sales,
			"pagination": pagination(page, limit, total),
		})
	}
}

// GetSaleHandler retrieves one sale of the company.
// GET /api/sales/:id
func (h *SaleHandlers) GetSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		sale, err := h.saleRepo.GetSaleByID(c.Request.Context(), companyID(c), id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		if sale == nil {
			renderError(c, apperr.NotFound("sale not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"sale": sale})
	}
}

// CreateSaleRequest is the payload for recording a sale.
type CreateSaleRequest struct {
	CustomerID int64      `json:"customer_id" binding:"required"`
	Amount     float64    `json:"amount" binding:"required"`
	Status     string     `json:"status"`
	SaleDate   *time.Time `json:"sale_date"`
	Notes      *string    `json:"notes"`
}

// CreateSaleHandler records a sale against one of the company's customers.
// The customer is looked up within the tenant first, so a customer id owned
// by another tenant yields 404 and nothing is inserted.
// POST /api/sales
func (h *SaleHandlers) CreateSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		if req.Amount < 0 {
			renderError(c, apperr.Validation("amount must not be negative"))
			return
		}

		status := req.Status
		if status == "" {
			status = models.SalePending
		}
		if !models.ValidSaleStatus(status) {
			renderError(c, apperr.Validation("status must be pending, paid, or cancelled"))
			return
		}

		customer, err := h.customerRepo.GetCustomerByID(c.Request.Context(), companyID(c), req.CustomerID)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		if customer == nil {
			renderError(c, apperr.NotFound("customer not found"))
			return
		}

		sale := &models.Sale{
			CompanyID:  companyID(c),
			CustomerID: req.CustomerID,
			UserID:     currentUserID(c),
			Amount:     req.Amount,
			Status:     status,
		}
		if req.SaleDate != nil {
			sale.SaleDate = *req.SaleDate
		}
		if req.Notes != nil {
			sale.Notes = req.Notes
		}

		if err := h.saleRepo.CreateSale(c.Request.Context(), sale); err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  sale.CompanyID,
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditCreate,
			EntityType: models.EntitySale,
			EntityID:   &sale.ID,
			IPAddress:  c.ClientIP(),
			Details:    map[string]interface{}{"amount": sale.Amount, "customer_id": sale.CustomerID},
		})

		c.JSON(http.StatusCreated, gin.H{"sale": sale})
	}
}

// UpdateSaleRequest carries the mutable sale fields. Customer and selling
// user are fixed at creation.
type UpdateSaleRequest struct {
	Amount   float64    `json:"amount" binding:"required"`
	Status   string     `json:"status" binding:"required"`
	SaleDate *time.Time `json:"sale_date"`
	Notes    *string    `json:"notes"`
}

// UpdateSaleHandler updates a sale's amount, status, date, and notes.
// PUT /api/sales/:id
func (h *SaleHandlers) UpdateSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req UpdateSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		if req.Amount < 0 {
			renderError(c, apperr.Validation("amount must not be negative"))
			return
		}
		if !models.ValidSaleStatus(req.Status) {
			renderError(c, apperr.Validation("status must be pending, paid, or cancelled"))
			return
		}

		existing, err := h.saleRepo.GetSaleByID(c.Request.Context(), companyID(c), id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		if existing == nil {
			renderError(c, apperr.NotFound("sale not found"))
			return
		}

		sale := &models.Sale{
			ID:        id,
			CompanyID: companyID(c),
			Amount:    req.Amount,
			Status:    req.Status,
			SaleDate:  existing.SaleDate,
			Notes:     req.Notes,
		}
		if req.SaleDate != nil {
			sale.SaleDate = *req.SaleDate
		}

		if err := h.saleRepo.UpdateSale(c.Request.Context(), sale); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				renderError(c, apperr.NotFound("sale not found"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  sale.CompanyID,
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditUpdate,
			EntityType: models.EntitySale,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
		})

		updated, err := h.saleRepo.GetSaleByID(c.Request.Context(), sale.CompanyID, id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"sale": updated})
	}
}

// UpdateSaleStatusRequest is the body of PATCH /api/sales/:id/status.
type UpdateSaleStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateSaleStatusHandler moves a sale between pending, paid, and cancelled
// without touching its other fields.
// PATCH /api/sales/:id/status
func (h *SaleHandlers) UpdateSaleStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		var req UpdateSaleStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			renderError(c, apperr.Validation("invalid request body: "+err.Error()))
			return
		}

		if !models.ValidSaleStatus(req.Status) {
			renderError(c, apperr.Validation("status must be pending, paid, or cancelled"))
			return
		}

		if err := h.saleRepo.UpdateSaleStatus(c.Request.Context(), companyID(c), id, req.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				renderError(c, apperr.NotFound("sale not found"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  companyID(c),
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditUpdateStatus,
			EntityType: models.EntitySale,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
			Details:    map[string]interface{}{"status": req.Status},
		})

		c.JSON(http.StatusOK, gin.H{"message": "sale status updated"})
	}
}

// DeleteSaleHandler deletes a sale. Sales are the one entity that is
// physically deleted; the deletion is audited with the sale's details.
// DELETE /api/sales/:id
func (h *SaleHandlers) DeleteSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		if err := h.saleRepo.DeleteSale(c.Request.Context(), companyID(c), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				renderError(c, apperr.NotFound("sale not found"))
				return
			}
			renderError(c, apperr.Database(err))
			return
		}

		h.recorder.Record(audit.Entry{
			CompanyID:  companyID(c),
			UserID:     currentUserIDPtr(c),
			Action:     models.AuditDelete,
			EntityType: models.EntitySale,
			EntityID:   &id,
			IPAddress:  c.ClientIP(),
		})

		c.JSON(http.StatusOK, gin.H{"message": "sale deleted"})
	}
}

// ExportSalesHandler streams the company's sales as CSV, honouring the same
// filters as the list endpoint but without pagination.
// GET /api/sales/export
func (h *SaleHandlers) ExportSalesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, err := parseSaleFilters(c)
		if err != nil {
			renderError(c, err)
			return
		}

		sales, err := h.saleRepo.ListSalesForExport(c.Request.Context(), companyID(c), filters)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		filename := fmt.Sprintf("sales-%s.csv", time.Now().UTC().Format("2006-01-02"))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Status(http.StatusOK)

		w := csv.NewWriter(c.Writer)
		_ = w.Write([]string{"id", "customer", "seller", "amount", "status", "sale_date", "notes"})
		for _, s := range sales {
			notes := ""
			if s.Notes != nil {
				notes = *s.Notes
			}
			_ = w.Write([]string{
				strconv.FormatInt(s.ID, 10),
				s.CustomerName,
				s.UserName,
				strconv.FormatFloat(s.Amount, 'f', 2, 64),
				s.Status,
				s.SaleDate.UTC().Format("2006-01-02"),
				notes,
			})
		}
		w.Flush()
	}
}
