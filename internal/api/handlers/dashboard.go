// dashboard.go implements the read-only aggregate endpoints backing the
// dashboard overview. Nothing here mutates state, so nothing is audited.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/apperr"
	"github.com/corebiz/corebiz/internal/db/repositories"
)

// DashboardHandlers handles dashboard aggregate endpoints.
type DashboardHandlers struct {
	dashboardRepo *repositories.DashboardRepository
}

// NewDashboardHandlers creates a DashboardHandlers instance.
func NewDashboardHandlers(dashboardRepo *repositories.DashboardRepository) *DashboardHandlers {
	return &DashboardHandlers{dashboardRepo: dashboardRepo}
}

// StatsHandler returns the tenant's headline counters and revenue totals.
// GET /api/dashboard/stats
func (h *DashboardHandlers) StatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := h.dashboardRepo.GetStats(c.Request.Context(), companyID(c))
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats})
	}
}

// SalesByMonthHandler returns per-month sale counts and paid revenue for the
// trend chart. Defaults to the last 12 months, capped at 36.
// GET /api/dashboard/sales-by-month?months=12
func (h *DashboardHandlers) SalesByMonthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))
		if months < 1 {
			months = 12
		}
		if months > 36 {
			months = 36
		}

		series, err := h.dashboardRepo.GetSalesByMonth(c.Request.Context(), companyID(c), months)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"sales_by_month": series})
	}
}

// TopCustomersHandler returns customers ranked by paid revenue. Defaults to
// the top 5, capped at 50.
// GET /api/dashboard/top-customers?limit=5
func (h *DashboardHandlers) TopCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
		if limit < 1 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		top, err := h.dashboardRepo.GetTopCustomers(c.Request.Context(), companyID(c), limit)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"top_customers": top})
	}
}

// RecentActivityHandler returns the most recently recorded sales.
// GET /api/dashboard/recent-activity?limit=10
func (h *DashboardHandlers) RecentActivityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if limit < 1 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		sales, err := h.dashboardRepo.GetRecentSales(c.Request.Context(), companyID(c), limit)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"recent_sales": sales})
	}
}
