package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/corebiz/corebiz/internal/db/models"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var auditCols = []string{
	"id", "company_id", "user_id", "action", "entity_type", "entity_id",
	"details", "ip_address", "created_at",
	"full_name", "email",
}

func int64Ptr(i int64) *int64 { return &i }

func sampleAuditRow() *sqlmock.Rows {
	return sqlmock.NewRows(auditCols).
		AddRow(int64(1), int64(10), int64(1), models.AuditCreate,
			models.EntityCustomer, int64(5), []byte(`{"name":"Globex"}`),
			"1.2.3.4", time.Now(), "Ada Admin", "a@x.com")
}

// ---------------------------------------------------------------------------
// CreateAuditLog
// ---------------------------------------------------------------------------

func TestCreateAuditLog_Success(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("INSERT INTO audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	log := &models.AuditLog{
		CompanyID:  10,
		UserID:     int64Ptr(1),
		Action:     models.AuditCreate,
		EntityType: strPtr(models.EntityCustomer),
		EntityID:   int64Ptr(5),
		IPAddress:  strPtr("1.2.3.4"),
	}
	if err := repo.CreateAuditLog(context.Background(), log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.ID != 7 {
		t.Errorf("ID = %d, want 7", log.ID)
	}
}

func TestCreateAuditLog_WithDetails(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("INSERT INTO audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	log := &models.AuditLog{
		CompanyID: 10,
		Action:    models.AuditUpdate,
		Details:   map[string]interface{}{"field": "status", "to": "paid"},
	}
	if err := repo.CreateAuditLog(context.Background(), log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateAuditLog_DBError(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("INSERT INTO audit_logs").WillReturnError(errDB)

	log := &models.AuditLog{CompanyID: 10, Action: models.AuditCreate}
	if err := repo.CreateAuditLog(context.Background(), log); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// ListAuditLogs
// ---------------------------------------------------------------------------

func TestListAuditLogs_NoFilters(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT a.id.*FROM audit_logs").
		WillReturnRows(sampleAuditRow())

	logs, total, err := repo.ListAuditLogs(context.Background(), 10, AuditFilters{}, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	if logs[0].Details["name"] != "Globex" {
		t.Errorf("Details = %v", logs[0].Details)
	}
	if logs[0].UserName == nil || *logs[0].UserName != "Ada Admin" {
		t.Errorf("UserName = %v", logs[0].UserName)
	}
}

func TestListAuditLogs_WithFilters(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	start := time.Now().AddDate(0, 0, -7)
	end := time.Now()

	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT a.id.*FROM audit_logs").
		WillReturnRows(sqlmock.NewRows(auditCols))

	filters := AuditFilters{
		UserID:     int64Ptr(1),
		Action:     strPtr(models.AuditLogin),
		EntityType: strPtr(models.EntityUser),
		StartDate:  &start,
		EndDate:    &end,
	}
	logs, total, err := repo.ListAuditLogs(context.Background(), 10, filters, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if len(logs) != 0 {
		t.Errorf("len(logs) = %d, want 0", len(logs))
	}
}

func TestListAuditLogs_CountError(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs").WillReturnError(errDB)

	_, _, err := repo.ListAuditLogs(context.Background(), 10, AuditFilters{}, 100, 0)
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetAuditLogByID
// ---------------------------------------------------------------------------

func TestGetAuditLogByID_Found(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("SELECT a.id.*FROM audit_logs.*WHERE a.id").
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sampleAuditRow())

	log, err := repo.GetAuditLogByID(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log == nil {
		t.Fatal("expected log, got nil")
	}
	if log.Action != models.AuditCreate {
		t.Errorf("Action = %q", log.Action)
	}
}

func TestGetAuditLogByID_WrongTenant(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("SELECT a.id.*FROM audit_logs.*WHERE a.id").
		WithArgs(int64(1), int64(99)).
		WillReturnRows(sqlmock.NewRows(auditCols))

	log, err := repo.GetAuditLogByID(context.Background(), 99, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log != nil {
		t.Errorf("expected nil, got %v", log)
	}
}

// ---------------------------------------------------------------------------
// GetAuditSummary
// ---------------------------------------------------------------------------

func TestGetAuditSummary(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("SELECT COUNT.*COUNT.*DISTINCT user_id.*FROM audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"count", "count"}).AddRow(12, 3))
	mock.ExpectQuery("SELECT action, COUNT.*FROM audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"action", "count"}).
			AddRow(models.AuditLogin, int64(8)).
			AddRow(models.AuditCreate, int64(4)))

	summary, err := repo.GetAuditSummary(context.Background(), 10, time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalEntries != 12 {
		t.Errorf("TotalEntries = %d, want 12", summary.TotalEntries)
	}
	if summary.ActiveUsers != 3 {
		t.Errorf("ActiveUsers = %d, want 3", summary.ActiveUsers)
	}
	if len(summary.ByAction) != 2 {
		t.Errorf("len(ByAction) = %d, want 2", len(summary.ByAction))
	}
}
