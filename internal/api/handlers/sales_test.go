package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/corebiz/corebiz/internal/audit"
	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/db/repositories"
)

var saleWithNamesCols = []string{
	"id", "company_id", "customer_id", "user_id", "amount", "status",
	"sale_date", "notes", "created_at", "updated_at",
	"customer_name", "customer_email", "user_name",
}

func saleRow(id int64, amount float64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(saleWithNamesCols).
		AddRow(id, testCompanyID, int64(11), testUserID, amount, status,
			now, nil, now, now, "Globex", strPtr("buyer@globex.test"), "Jane Doe")
}

func newSaleRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock := newTestDB(t)

	recorder := audit.NewRecorder(repositories.NewAuditRepository(db), nil, false)
	h := NewSaleHandlers(
		repositories.NewSaleRepository(db),
		repositories.NewCustomerRepository(db),
		recorder,
	)

	r := gin.New()
	r.Use(authedContext(models.RoleStaff))
	r.GET("/sales", h.ListSalesHandler())
	r.POST("/sales", h.CreateSaleHandler())
	r.GET("/sales/export", h.ExportSalesHandler())
	r.GET("/sales/:id", h.GetSaleHandler())
	r.PUT("/sales/:id", h.UpdateSaleHandler())
	r.PATCH("/sales/:id/status", h.UpdateSaleStatusHandler())
	r.DELETE("/sales/:id", h.DeleteSaleHandler())
	return mock, r
}

// ---------------------------------------------------------------------------
// ListSalesHandler / GetSaleHandler
// ---------------------------------------------------------------------------

func TestListSalesHandler(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sales`).
		WithArgs(testCompanyID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT s.id, s.company_id").
		WillReturnRows(saleRow(21, 150, models.SalePending))

	w := doJSON(r, http.MethodGet, "/sales", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	sales, _ := resp["sales"].([]interface{})
	if len(sales) != 1 {
		t.Fatalf("got %d sales, want 1: %s", len(sales), w.Body.String())
	}
	sale, _ := sales[0].(map[string]interface{})
	if sale["customer_name"] != "Globex" || sale["user_name"] != "Jane Doe" {
		t.Errorf("expected joined names in sale listing: %s", w.Body.String())
	}
}

func TestListSalesHandler_BadDateFilter(t *testing.T) {
	_, r := newSaleRouter(t)

	w := doJSON(r, http.MethodGet, "/sales?start_date=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unparseable date", w.Code)
	}
}

func TestGetSaleHandler(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectQuery("SELECT s.id, s.company_id").
		WithArgs(int64(21), testCompanyID).
		WillReturnRows(saleRow(21, 150, models.SalePaid))

	w := doJSON(r, http.MethodGet, "/sales/21", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	sale, _ := resp["sale"].(map[string]interface{})
	if sale == nil || sale["status"] != models.SalePaid {
		t.Errorf("unexpected sale response: %s", w.Body.String())
	}
}

func TestGetSaleHandler_NotFound(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectQuery("SELECT s.id, s.company_id").
		WithArgs(int64(99), testCompanyID).
		WillReturnRows(sqlmock.NewRows(saleWithNamesCols))

	w := doJSON(r, http.MethodGet, "/sales/99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// CreateSaleHandler
// ---------------------------------------------------------------------------

func TestCreateSaleHandler(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectQuery("SELECT id, company_id, name").
		WithArgs(int64(11), testCompanyID).
		WillReturnRows(customerRow(11))
	mock.ExpectQuery("INSERT INTO sales").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))

	w := doJSON(r, http.MethodPost, "/sales", map[string]interface{}{
		"customer_id": 11,
		"amount":      150.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body = %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	sale, _ := resp["sale"].(map[string]interface{})
	if sale == nil || sale["status"] != models.SalePending {
		t.Errorf("new sale should default to pending: %s", w.Body.String())
	}
	if sale["user_id"] != float64(testUserID) {
		t.Errorf("sale should be attributed to the authenticated user: %s", w.Body.String())
	}
}

// The ownership check runs before the insert; a customer of another tenant
// scans zero rows, so nothing is written.
func TestCreateSaleHandler_ForeignCustomer(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectQuery("SELECT id, company_id, name").
		WithArgs(int64(44), testCompanyID).
		WillReturnRows(sqlmock.NewRows(customerCols))

	w := doJSON(r, http.MethodPost, "/sales", map[string]interface{}{
		"customer_id": 44,
		"amount":      150.0,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateSaleHandler_NegativeAmount(t *testing.T) {
	_, r := newSaleRouter(t)

	w := doJSON(r, http.MethodPost, "/sales", map[string]interface{}{
		"customer_id": 11,
		"amount":      -5.0,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for negative amount", w.Code)
	}
}

func TestCreateSaleHandler_InvalidStatus(t *testing.T) {
	_, r := newSaleRouter(t)

	w := doJSON(r, http.MethodPost, "/sales", map[string]interface{}{
		"customer_id": 11,
		"amount":      150.0,
		"status":      "refunded",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown status", w.Code)
	}
}

// ---------------------------------------------------------------------------
// UpdateSaleHandler / DeleteSaleHandler
// ---------------------------------------------------------------------------

func TestUpdateSaleHandler(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectQuery("SELECT s.id, s.company_id").
		WithArgs(int64(21), testCompanyID).
		WillReturnRows(saleRow(21, 150, models.SalePending))
	mock.ExpectExec("UPDATE sales").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT s.id, s.company_id").
		WithArgs(int64(21), testCompanyID).
		WillReturnRows(saleRow(21, 175, models.SalePaid))

	w := doJSON(r, http.MethodPut, "/sales/21", map[string]interface{}{
		"amount": 175.0,
		"status": models.SalePaid,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	sale, _ := resp["sale"].(map[string]interface{})
	if sale == nil || sale["status"] != models.SalePaid {
		t.Errorf("unexpected update response: %s", w.Body.String())
	}
}

func TestUpdateSaleHandler_NotFound(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectQuery("SELECT s.id, s.company_id").
		WithArgs(int64(99), testCompanyID).
		WillReturnRows(sqlmock.NewRows(saleWithNamesCols))

	w := doJSON(r, http.MethodPut, "/sales/99", map[string]interface{}{
		"amount": 175.0,
		"status": models.SalePaid,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateSaleStatusHandler(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectExec("UPDATE sales").
		WithArgs(int64(21), testCompanyID, models.SalePaid, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodPatch, "/sales/21/status", map[string]interface{}{
		"status": models.SalePaid,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if getJSON(w)["message"] != "sale status updated" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestUpdateSaleStatusHandler_InvalidStatus(t *testing.T) {
	// No expectations: validation must reject before any write.
	_, r := newSaleRouter(t)

	w := doJSON(r, http.MethodPatch, "/sales/21/status", map[string]interface{}{
		"status": "refunded",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateSaleStatusHandler_NotFound(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectExec("UPDATE sales").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(r, http.MethodPatch, "/sales/99/status", map[string]interface{}{
		"status": models.SaleCancelled,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteSaleHandler(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectExec("DELETE FROM sales").
		WithArgs(int64(21), testCompanyID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodDelete, "/sales/21", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if getJSON(w)["message"] != "sale deleted" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestDeleteSaleHandler_NotFound(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectExec("DELETE FROM sales").
		WithArgs(int64(99), testCompanyID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(r, http.MethodDelete, "/sales/99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// ExportSalesHandler
// ---------------------------------------------------------------------------

func TestExportSalesHandler(t *testing.T) {
	mock, r := newSaleRouter(t)

	mock.ExpectQuery("SELECT s.id, s.company_id").
		WithArgs(testCompanyID).
		WillReturnRows(saleRow(21, 150, models.SalePaid))

	w := doJSON(r, http.MethodGet, "/sales/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want an attachment", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d CSV lines, want header + 1 row:\n%s", len(lines), w.Body.String())
	}
	if lines[0] != "id,customer,seller,amount,status,sale_date,notes" {
		t.Errorf("unexpected CSV header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "21,Globex,Jane Doe,150.00,paid,") {
		t.Errorf("unexpected CSV row: %q", lines[1])
	}
}
