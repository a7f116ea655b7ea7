package models

// DashboardStats aggregates tenant-level metrics for the dashboard overview.
type DashboardStats struct {
	TotalCustomers  int64   `db:"total_customers" json:"total_customers"`
	ActiveCustomers int64   `db:"active_customers" json:"active_customers"`
	TotalUsers      int64   `db:"total_users" json:"total_users"`
	TotalSales      int64   `db:"total_sales" json:"total_sales"`
	PendingSales    int64   `db:"pending_sales" json:"pending_sales"`
	TotalRevenue    float64 `db:"total_revenue" json:"total_revenue"`
	MonthRevenue    float64 `db:"month_revenue" json:"month_revenue"`
}

// MonthlySales is one month's aggregated sales for the trend chart.
type MonthlySales struct {
	Month   string  `db:"month" json:"month"` // YYYY-MM
	Count   int64   `db:"count" json:"count"`
	Revenue float64 `db:"revenue" json:"revenue"`
}

// TopCustomer is a customer ranked by paid revenue.
type TopCustomer struct {
	CustomerID   int64   `db:"customer_id" json:"customer_id"`
	CustomerName string  `db:"customer_name" json:"customer_name"`
	SaleCount    int64   `db:"sale_count" json:"sale_count"`
	Revenue      float64 `db:"revenue" json:"revenue"`
}
