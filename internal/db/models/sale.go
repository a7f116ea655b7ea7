package models

import "time"

// Sale statuses.
const (
	SalePending   = "pending"
	SalePaid      = "paid"
	SaleCancelled = "cancelled"
)

// Sale represents a tenant-scoped sale. CustomerID must reference a customer
// of the same company; the handler verifies this before insert.
type Sale struct {
	ID         int64     `db:"id" json:"id"`
	CompanyID  int64     `db:"company_id" json:"-"`
	CustomerID int64     `db:"customer_id" json:"customer_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Amount     float64   `db:"amount" json:"amount"`
	Status     string    `db:"status" json:"status"`
	SaleDate   time.Time `db:"sale_date" json:"sale_date"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SaleWithNames is the list/detail view of a sale joined with the customer
// and the selling user's display fields.
type SaleWithNames struct {
	Sale
	CustomerName  string  `db:"customer_name" json:"customer_name"`
	CustomerEmail *string `db:"customer_email" json:"customer_email,omitempty"`
	UserName      string  `db:"user_name" json:"user_name"`
}

// ValidSaleStatus reports whether status is in the closed sale status set.
func ValidSaleStatus(status string) bool {
	switch status {
	case SalePending, SalePaid, SaleCancelled:
		return true
	}
	return false
}
