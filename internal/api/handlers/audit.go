// audit.go implements the admin-only audit query endpoints. The audit trail
// itself is append-only; these handlers are strictly read paths.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/apperr"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
)

// Audit list paging bounds. The default is generous because the trail is the
// primary incident-review tool; the cap keeps a single query bounded.
const (
	auditDefaultLimit = 100
	auditMaxLimit     = 1000
)

// AuditHandlers handles audit log query endpoints.
type AuditHandlers struct {
	auditRepo *repositories.AuditRepository
}

// NewAuditHandlers creates an AuditHandlers instance.
func NewAuditHandlers(auditRepo *repositories.AuditRepository) *AuditHandlers {
	return &AuditHandlers{auditRepo: auditRepo}
}

// ListAuditLogsHandler lists the company's audit entries, newest first, with
// optional filters.
// GET /api/audit?limit=100&offset=0&action=login&user_id=3&entity_type=sale&start_date=&end_date=
func (h *AuditHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(auditDefaultLimit)))
		if limit < 1 {
			limit = auditDefaultLimit
		}
		if limit > auditMaxLimit {
			limit = auditMaxLimit
		}
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if offset < 0 {
			offset = 0
		}

		var filters repositories.AuditFilters
		if raw := c.Query("user_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id < 1 {
				renderError(c, apperr.Validation("user_id must be a positive integer"))
				return
			}
			filters.UserID = &id
		}
		if action := c.Query("action"); action != "" {
			if !models.ValidAuditAction(action) {
				renderError(c, apperr.Validation("unknown audit action"))
				return
			}
			filters.Action = &action
		}
		if entityType := c.Query("entity_type"); entityType != "" {
			if !models.ValidEntityType(entityType) {
				renderError(c, apperr.Validation("unknown entity type"))
				return
			}
			filters.EntityType = &entityType
		}
		if raw := c.Query("start_date"); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				renderError(c, apperr.Validation("start_date must be an RFC 3339 or YYYY-MM-DD date"))
				return
			}
			filters.StartDate = &t
		}
		if raw := c.Query("end_date"); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				renderError(c, apperr.Validation("end_date must be an RFC 3339 or YYYY-MM-DD date"))
				return
			}
			filters.EndDate = &t
		}

		logs, total, err := h.auditRepo.ListAuditLogs(c.Request.Context(), companyID(c), filters, limit, offset)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"audit_logs": logs,
			"pagination": gin.H{
				"limit":  limit,
				"offset": offset,
				"total":  total,
			},
		})
	}
}

// GetAuditLogHandler retrieves a single audit entry of the company.
// GET /api/audit/:id
func (h *AuditHandlers) GetAuditLogHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c)
		if !ok {
			return
		}

		log, err := h.auditRepo.GetAuditLogByID(c.Request.Context(), companyID(c), id)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}
		if log == nil {
			renderError(c, apperr.NotFound("audit log not found"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"audit_log": log})
	}
}

// GetAuditSummaryHandler returns entry counts by action plus distinct active
// users over a trailing window. Defaults to the last 30 days, capped at 365.
// GET /api/audit/summary/stats?days=30
func (h *AuditHandlers) GetAuditSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
		if days < 1 {
			days = 30
		}
		if days > 365 {
			days = 365
		}

		since := time.Now().AddDate(0, 0, -days)
		summary, err := h.auditRepo.GetAuditSummary(c.Request.Context(), companyID(c), since)
		if err != nil {
			renderError(c, apperr.Database(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"summary": summary,
			"days":    days,
		})
	}
}
