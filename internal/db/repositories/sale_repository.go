// sale_repository.go implements SaleRepository. Listing joins customer and user
// names so the API can render sales without N+1 lookups.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/corebiz/corebiz/internal/db/models"
)

// SaleRepository handles sale database operations
type SaleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository creates a new SaleRepository
func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// SaleFilters contains filters for listing sales
type SaleFilters struct {
	Status     *string
	CustomerID *int64
	StartDate  *time.Time
	EndDate    *time.Time
}

const saleWithNamesSelect = `
	SELECT s.id, s.company_id, s.customer_id, s.user_id, s.amount, s.status,
	       s.sale_date, s.notes, s.created_at, s.updated_at,
	       c.name AS customer_name, c.email AS customer_email,
	       u.full_name AS user_name
	FROM sales s
	JOIN customers c ON s.customer_id = c.id
	JOIN users u ON s.user_id = u.id
`

// CreateSale creates a new sale within a company. The handler verifies the
// customer belongs to the same company before calling this.
func (r *SaleRepository) CreateSale(ctx context.Context, sale *models.Sale) error {
	now := time.Now()
	sale.CreatedAt = now
	sale.UpdatedAt = now
	if sale.SaleDate.IsZero() {
		sale.SaleDate = now
	}

	query := `
		INSERT INTO sales (company_id, customer_id, user_id, amount, status, sale_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		sale.CompanyID,
		sale.CustomerID,
		sale.UserID,
		sale.Amount,
		sale.Status,
		sale.SaleDate,
		sale.Notes,
		sale.CreatedAt,
		sale.UpdatedAt,
	).Scan(&sale.ID)
}

// GetSaleByID retrieves a sale by ID within a company, with customer and user names
func (r *SaleRepository) GetSaleByID(ctx context.Context, companyID, saleID int64) (*models.SaleWithNames, error) {
	query := saleWithNamesSelect + ` WHERE s.id = $1 AND s.company_id = $2`

	sale := &models.SaleWithNames{}
	err := r.db.GetContext(ctx, sale, query, saleID, companyID)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return sale, nil
}

// ListSales retrieves a company's sales with optional filters, newest first, paginated
func (r *SaleRepository) ListSales(ctx context.Context, companyID int64, filters SaleFilters, limit, offset int) ([]*models.SaleWithNames, int, error) {
	countQuery := `SELECT COUNT(*) FROM sales s WHERE s.company_id = $1`
	query := saleWithNamesSelect + ` WHERE s.company_id = $1`

	args := []interface{}{companyID}
	paramIndex := 2

	if filters.Status != nil {
		countQuery += fmt.Sprintf(` AND s.status = $%d`, paramIndex)
		query += fmt.Sprintf(` AND s.status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}

	if filters.CustomerID != nil {
		countQuery += fmt.Sprintf(` AND s.customer_id = $%d`, paramIndex)
		query += fmt.Sprintf(` AND s.customer_id = $%d`, paramIndex)
		args = append(args, *filters.CustomerID)
		paramIndex++
	}

	if filters.StartDate != nil {
		countQuery += fmt.Sprintf(` AND s.sale_date >= $%d`, paramIndex)
		query += fmt.Sprintf(` AND s.sale_date >= $%d`, paramIndex)
		args = append(args, *filters.StartDate)
		paramIndex++
	}

	if filters.EndDate != nil {
		countQuery += fmt.Sprintf(` AND s.sale_date <= $%d`, paramIndex)
		query += fmt.Sprintf(` AND s.sale_date <= $%d`, paramIndex)
		args = append(args, *filters.EndDate)
		paramIndex++
	}

	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY s.sale_date DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	sales := make([]*models.SaleWithNames, 0)
	err = r.db.SelectContext(ctx, &sales, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}

// ListSalesByCustomer retrieves all sales for one customer within a company,
// newest first
func (r *SaleRepository) ListSalesByCustomer(ctx context.Context, companyID, customerID int64) ([]*models.SaleWithNames, error) {
	query := saleWithNamesSelect + `
		WHERE s.company_id = $1 AND s.customer_id = $2
		ORDER BY s.sale_date DESC
	`

	sales := make([]*models.SaleWithNames, 0)
	err := r.db.SelectContext(ctx, &sales, query, companyID, customerID)
	if err != nil {
		return nil, err
	}

	return sales, nil
}

// ListSalesForExport retrieves all of a company's sales matching the filters,
// without pagination, for CSV export
func (r *SaleRepository) ListSalesForExport(ctx context.Context, companyID int64, filters SaleFilters) ([]*models.SaleWithNames, error) {
	query := saleWithNamesSelect + ` WHERE s.company_id = $1`

	args := []interface{}{companyID}
	paramIndex := 2

	if filters.Status != nil {
		query += fmt.Sprintf(` AND s.status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}

	if filters.StartDate != nil {
		query += fmt.Sprintf(` AND s.sale_date >= $%d`, paramIndex)
		args = append(args, *filters.StartDate)
		paramIndex++
	}

	if filters.EndDate != nil {
		query += fmt.Sprintf(` AND s.sale_date <= $%d`, paramIndex)
		args = append(args, *filters.EndDate)
		paramIndex++
	}

	query += ` ORDER BY s.sale_date DESC`

	sales := make([]*models.SaleWithNames, 0)
	err := r.db.SelectContext(ctx, &sales, query, args...)
	if err != nil {
		return nil, err
	}

	return sales, nil
}

// UpdateSale updates a sale's fields within a company.
// Returns sql.ErrNoRows if the sale does not exist in that company.
func (r *SaleRepository) UpdateSale(ctx context.Context, sale *models.Sale) error {
	sale.UpdatedAt = time.Now()

	query := `
		UPDATE sales
		SET amount = $3, status = $4, sale_date = $5, notes = $6, updated_at = $7
		WHERE id = $1 AND company_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		sale.ID,
		sale.CompanyID,
		sale.Amount,
		sale.Status,
		sale.SaleDate,
		sale.Notes,
		sale.UpdatedAt,
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

// UpdateSaleStatus sets a sale's status within a company.
// Returns sql.ErrNoRows if the sale does not exist in that company.
func (r *SaleRepository) UpdateSaleStatus(ctx context.Context, companyID, saleID int64, status string) error {
	query := `
		UPDATE sales
		SET status = $3, updated_at = $4
		WHERE id = $1 AND company_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, saleID, companyID, status, time.Now())
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

// DeleteSale deletes a sale within a company.
// Returns sql.ErrNoRows if the sale does not exist in that company.
func (r *SaleRepository) DeleteSale(ctx context.Context, companyID, saleID int64) error {
	query := `DELETE FROM sales WHERE id = $1 AND company_id = $2`

	result, err := r.db.ExecContext(ctx, query, saleID, companyID)
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
