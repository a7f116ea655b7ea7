// dashboard_repository.go implements DashboardRepository, read-only aggregate
// queries backing the dashboard endpoints.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/corebiz/corebiz/internal/db/models"
)

// DashboardRepository handles dashboard aggregate queries
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new DashboardRepository
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// GetStats retrieves a company's headline metrics in a single round trip
func (r *DashboardRepository) GetStats(ctx context.Context, companyID int64) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM customers WHERE company_id = $1) AS total_customers,
			(SELECT COUNT(*) FROM customers WHERE company_id = $1 AND status = 'active') AS active_customers,
			(SELECT COUNT(*) FROM users WHERE company_id = $1) AS total_users,
			(SELECT COUNT(*) FROM sales WHERE company_id = $1) AS total_sales,
			(SELECT COUNT(*) FROM sales WHERE company_id = $1 AND status = 'pending') AS pending_sales,
			(SELECT COALESCE(SUM(amount), 0) FROM sales WHERE company_id = $1 AND status = 'paid') AS total_revenue,
			(SELECT COALESCE(SUM(amount), 0) FROM sales
			 WHERE company_id = $1 AND status = 'paid'
			   AND sale_date >= date_trunc('month', NOW())) AS month_revenue
	`

	stats := &models.DashboardStats{}
	err := r.db.GetContext(ctx, stats, query, companyID)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// GetSalesByMonth retrieves monthly sale counts and paid revenue for the last
// `months` months, oldest first
func (r *DashboardRepository) GetSalesByMonth(ctx context.Context, companyID int64, months int) ([]*models.MonthlySales, error) {
	query := `
		SELECT to_char(date_trunc('month', sale_date), 'YYYY-MM') AS month,
		       COUNT(*) AS count,
		       COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0) AS revenue
		FROM sales
		WHERE company_id = $1
		  AND sale_date >= date_trunc('month', NOW()) - ($2 || ' months')::interval
		GROUP BY date_trunc('month', sale_date)
		ORDER BY date_trunc('month', sale_date)
	`

	results := make([]*models.MonthlySales, 0)
	err := r.db.SelectContext(ctx, &results, query, companyID, months)
	if err != nil {
		return nil, err
	}

	return results, nil
}

// GetTopCustomers retrieves a company's customers ranked by paid revenue
func (r *DashboardRepository) GetTopCustomers(ctx context.Context, companyID int64, limit int) ([]*models.TopCustomer, error) {
	query := `
		SELECT c.id AS customer_id, c.name AS customer_name,
		       COUNT(s.id) AS sale_count,
		       COALESCE(SUM(s.amount) FILTER (WHERE s.status = 'paid'), 0) AS revenue
		FROM customers c
		JOIN sales s ON s.customer_id = c.id
		WHERE c.company_id = $1
		GROUP BY c.id, c.name
		ORDER BY revenue DESC
		LIMIT $2
	`

	results := make([]*models.TopCustomer, 0)
	err := r.db.SelectContext(ctx, &results, query, companyID, limit)
	if err != nil {
		return nil, err
	}

	return results, nil
}

// GetRecentSales retrieves a company's most recent sales with names attached
func (r *DashboardRepository) GetRecentSales(ctx context.Context, companyID int64, limit int) ([]*models.SaleWithNames, error) {
	query := saleWithNamesSelect + `
		WHERE s.company_id = $1
		ORDER BY s.created_at DESC
		LIMIT $2
	`

	sales := make([]*models.SaleWithNames, 0)
	err := r.db.SelectContext(ctx, &sales, query, companyID, limit)
	if err != nil {
		return nil, err
	}

	return sales, nil
}
