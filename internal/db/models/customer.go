package models

import "time"

// Customer statuses.
const (
	CustomerActive   = "active"
	CustomerInactive = "inactive"
)

// Customer represents a tenant-scoped customer record.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	CompanyID int64     `db:"company_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidCustomerStatus reports whether status is in the closed {active, inactive} set.
func ValidCustomerStatus(status string) bool {
	return status == CustomerActive || status == CustomerInactive
}
