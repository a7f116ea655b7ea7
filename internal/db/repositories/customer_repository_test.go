package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/corebiz/corebiz/internal/db/models"
)

var customerCols = []string{
	"id", "company_id", "name", "email", "phone",
	"address", "status", "created_at", "updated_at",
}

func sampleCustomerRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(customerCols).
		AddRow(int64(5), int64(10), "Globex", "contact@globex.com", nil,
			nil, models.CustomerActive, now, now)
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// CreateCustomer
// ---------------------------------------------------------------------------

func TestCreateCustomer_Success(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery("INSERT INTO customers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	customer := &models.Customer{
		CompanyID: 10,
		Name:      "Globex",
		Status:    models.CustomerActive,
	}
	if err := repo.CreateCustomer(context.Background(), customer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer.ID != 5 {
		t.Errorf("ID = %d, want 5", customer.ID)
	}
}

// ---------------------------------------------------------------------------
// GetCustomerByID
// ---------------------------------------------------------------------------

func TestGetCustomerByID_Found(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery("SELECT id.*FROM customers.*WHERE id").
		WithArgs(int64(5), int64(10)).
		WillReturnRows(sampleCustomerRow())

	customer, err := repo.GetCustomerByID(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer == nil {
		t.Fatal("expected customer, got nil")
	}
	if customer.Name != "Globex" {
		t.Errorf("Name = %q", customer.Name)
	}
}

func TestGetCustomerByID_WrongTenant(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery("SELECT id.*FROM customers.*WHERE id").
		WithArgs(int64(5), int64(99)).
		WillReturnRows(sqlmock.NewRows(customerCols))

	customer, err := repo.GetCustomerByID(context.Background(), 99, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer != nil {
		t.Errorf("expected nil, got %v", customer)
	}
}

// ---------------------------------------------------------------------------
// ListCustomers
// ---------------------------------------------------------------------------

func TestListCustomers_NoFilters(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery("SELECT COUNT.*FROM customers").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id.*FROM customers").
		WillReturnRows(sampleCustomerRow())

	customers, total, err := repo.ListCustomers(context.Background(), 10, CustomerFilters{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(customers) != 1 {
		t.Errorf("len(customers) = %d, want 1", len(customers))
	}
}

func TestListCustomers_WithFilters(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery("SELECT COUNT.*FROM customers").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT id.*FROM customers").
		WillReturnRows(sqlmock.NewRows(customerCols))

	filters := CustomerFilters{
		Status: strPtr(models.CustomerActive),
		Search: strPtr("glo"),
	}
	customers, total, err := repo.ListCustomers(context.Background(), 10, filters, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if len(customers) != 0 {
		t.Errorf("len(customers) = %d, want 0", len(customers))
	}
}

func TestListCustomers_CountError(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectQuery("SELECT COUNT.*FROM customers").
		WillReturnError(errDB)

	_, _, err := repo.ListCustomers(context.Background(), 10, CustomerFilters{}, 20, 0)
	if err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// Updates
// ---------------------------------------------------------------------------

func TestUpdateCustomer_WrongTenant(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec("UPDATE customers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	customer := &models.Customer{ID: 5, CompanyID: 99, Name: "Globex"}
	err := repo.UpdateCustomer(context.Background(), customer)
	if err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdateCustomerStatus_Success(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec("UPDATE customers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateCustomerStatus(context.Background(), 10, 5, models.CustomerInactive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
