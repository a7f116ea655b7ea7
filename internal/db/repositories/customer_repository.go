// customer_repository.go implements CustomerRepository, the tenant-scoped data
// access for customer records.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/corebiz/corebiz/internal/db/models"
)

// CustomerRepository handles customer database operations
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// CustomerFilters contains filters for listing customers
type CustomerFilters struct {
	Status *string
	Search *string
}

// CreateCustomer creates a new customer within a company
func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	query := `
		INSERT INTO customers (company_id, name, email, phone, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		customer.CompanyID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.Status,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Scan(&customer.ID)
}

// GetCustomerByID retrieves a customer by ID within a company
func (r *CustomerRepository) GetCustomerByID(ctx context.Context, companyID, customerID int64) (*models.Customer, error) {
	query := `
		SELECT id, company_id, name, email, phone, address, status, created_at, updated_at
		FROM customers
		WHERE id = $1 AND company_id = $2
	`

	customer := &models.Customer{}
	err := r.db.GetContext(ctx, customer, query, customerID, companyID)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return customer, nil
}

// ListCustomers retrieves a company's customers with optional status filter and
// name/email search, paginated
func (r *CustomerRepository) ListCustomers(ctx context.Context, companyID int64, filters CustomerFilters, limit, offset int) ([]*models.Customer, int, error) {
	countQuery := `SELECT COUNT(*) FROM customers WHERE company_id = $1`
	query := `
		SELECT id, company_id, name, email, phone, address, status, created_at, updated_at
		FROM customers
		WHERE company_id = $1
	`

	args := []interface{}{companyID}
	paramIndex := 2

	if filters.Status != nil {
		countQuery += fmt.Sprintf(` AND status = $%d`, paramIndex)
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}

	if filters.Search != nil {
		countQuery += fmt.Sprintf(` AND (name ILIKE $%d OR email ILIKE $%d)`, paramIndex, paramIndex)
		query += fmt.Sprintf(` AND (name ILIKE $%d OR email ILIKE $%d)`, paramIndex, paramIndex)
		args = append(args, "%"+*filters.Search+"%")
		paramIndex++
	}

	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	customers := make([]*models.Customer, 0)
	err = r.db.SelectContext(ctx, &customers, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

// UpdateCustomer updates a customer's fields within a company.
// Returns sql.ErrNoRows if the customer does not exist in that company.
func (r *CustomerRepository) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = time.Now()

	query := `
		UPDATE customers
		SET name = $3, email = $4, phone = $5, address = $6, updated_at = $7
		WHERE id = $1 AND company_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.CompanyID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// UpdateCustomerStatus sets a customer's status within a company.
// Returns sql.ErrNoRows if the customer does not exist in that company.
func (r *CustomerRepository) UpdateCustomerStatus(ctx context.Context, companyID, customerID int64, status string) error {
	query := `
		UPDATE customers
		SET status = $3, updated_at = $4
		WHERE id = $1 AND company_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, customerID, companyID, status, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
