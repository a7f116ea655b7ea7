package models

import "time"

// User roles. The role set is closed: there is no third role and no
// per-endpoint scope system — admin unlocks the admin-only endpoints,
// staff gets everything else.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User statuses. Users are never deleted, only deactivated.
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// User represents a principal owned by exactly one company. Email uniqueness
// is scoped to the company, not global: two tenants may each have a user with
// the same address.
type User struct {
	ID           int64     `db:"id" json:"id"`
	CompanyID    int64     `db:"company_id" json:"company_id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         string    `db:"role" json:"role"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool { return u.Status == UserActive }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ValidRole reports whether role is in the closed {admin, staff} set.
func ValidRole(role string) bool { return role == RoleAdmin || role == RoleStaff }

// ValidUserStatus reports whether status is in the closed {active, inactive} set.
func ValidUserStatus(status string) bool { return status == UserActive || status == UserInactive }

// UserWithCompany is the login-path join of a user with its owning company's
// liveness fields, fetched in a single query so credential verification and
// tenant liveness use one consistent snapshot.
type UserWithCompany struct {
	User
	CompanyName   string `db:"company_name" json:"company_name"`
	CompanyStatus string `db:"company_status" json:"-"`
}
