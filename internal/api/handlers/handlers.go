// Package handlers implements the tenant-scoped HTTP handlers for the CoreBiz
// API. Every handler reads its tenant from the company id bound into the gin
// context by the auth middleware — client-supplied tenant ids are never used
// for scoping. State-changing handlers record an audit entry after the
// operation succeeds.
package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/apperr"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/middleware"
)

// renderError converts an error into the single JSON error shape the API
// produces. Unclassified errors are treated as internal: the client gets a
// generic message while the cause goes to the structured log.
func renderError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Database(err)
	}

	if appErr.Kind == apperr.KindDatabase {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", appErr.Err,
		)
	}

	c.JSON(appErr.Status(), gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}

// companyID returns the tenant id bound by the auth middleware. A zero return
// means the route was registered without AuthMiddleware, which is a wiring
// bug, not a client error.
func companyID(c *gin.Context) int64 {
	return c.GetInt64(middleware.ContextCompanyIDKey)
}

// currentUser returns the authenticated user loaded by the auth middleware.
func currentUser(c *gin.Context) *models.UserWithCompany {
	return middleware.CurrentUser(c)
}

// currentUserID returns the authenticated user's id.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(middleware.ContextUserIDKey)
}

// currentUserIDPtr returns the authenticated user's id as a pointer for audit
// entries, or nil when the request is unauthenticated.
func currentUserIDPtr(c *gin.Context) *int64 {
	id := currentUserID(c)
	if id == 0 {
		return nil
	}
	return &id
}

// parseIDParam parses the :id route parameter. Non-numeric ids are rendered
// as 404 rather than 400 so that probing with garbage ids is
// indistinguishable from probing with unused numeric ids.
func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		renderError(c, apperr.NotFound("not found"))
		return 0, false
	}
	return id, true
}

// parsePagination reads page/per_page query parameters with the given default
// and maximum page size.
func parsePagination(c *gin.Context, defaultPerPage, maxPerPage int) (limit, offset, page int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return perPage, (page - 1) * perPage, page
}

// pagination is the standard pagination envelope returned by list endpoints.
func pagination(page, perPage, total int) gin.H {
	return gin.H{
		"page":     page,
		"per_page": perPage,
		"total":    total,
	}
}
