// Package models defines the persistence-layer structs shared by the
// repositories and HTTP handlers. The company is the tenant boundary: every
// other entity carries a CompanyID and every query filters by it.
package models

import "time"

// Company subscription plans.
const (
	PlanFree       = "Free"
	PlanBasic      = "Basic"
	PlanPremium    = "Premium"
	PlanEnterprise = "Enterprise"
)

// Company statuses. A company that is not active blocks authentication and
// every operation for all of its users.
const (
	CompanyActive    = "active"
	CompanySuspended = "suspended"
	CompanyCancelled = "cancelled"
)

// Company represents a tenant account.
type Company struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"` // unique across all tenants
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Plan      string    `db:"plan" json:"plan"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the company may authenticate and operate.
func (c *Company) IsActive() bool { return c.Status == CompanyActive }

// ValidPlan reports whether plan is one of the closed plan set.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanBasic, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// ValidCompanyStatus reports whether status is one of the closed status set.
func ValidCompanyStatus(status string) bool {
	switch status {
	case CompanyActive, CompanySuspended, CompanyCancelled:
		return true
	}
	return false
}
