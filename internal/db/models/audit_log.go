package models

import "time"

// Audit actions. This is the closed union of every action recorded anywhere
// in the codebase — call sites may not invent new strings.
const (
	AuditCreate         = "create"
	AuditUpdate         = "update"
	AuditDelete         = "delete"
	AuditLogin          = "login"
	AuditLogout         = "logout"
	AuditRegister       = "register"
	AuditChangePassword = "change_password"
	AuditActivate       = "activate"
	AuditDeactivate     = "deactivate"
	AuditUpdateStatus   = "update_status"
)

// Audit entity types.
const (
	EntityCompany  = "company"
	EntityUser     = "user"
	EntityCustomer = "customer"
	EntitySale     = "sale"
)

// AuditLog is an append-only record of a state-changing or authentication
// event. Rows are never updated or deleted.
type AuditLog struct {
	ID         int64                  `db:"id" json:"id"`
	CompanyID  int64                  `db:"company_id" json:"-"`
	UserID     *int64                 `db:"user_id" json:"user_id"` // nil for system actions
	Action     string                 `db:"action" json:"action"`
	EntityType *string                `db:"entity_type" json:"entity_type,omitempty"`
	EntityID   *int64                 `db:"entity_id" json:"entity_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	IPAddress  *string                `db:"ip_address" json:"ip_address,omitempty"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
}

// AuditLogWithUser is the admin-query view joined with the acting user's
// display fields (nil for system actions).
type AuditLogWithUser struct {
	AuditLog
	UserName  *string `db:"user_name" json:"user_name,omitempty"`
	UserEmail *string `db:"user_email" json:"user_email,omitempty"`
}

// ValidAuditAction reports whether action is in the closed action set.
func ValidAuditAction(action string) bool {
	switch action {
	case AuditCreate, AuditUpdate, AuditDelete, AuditLogin, AuditLogout,
		AuditRegister, AuditChangePassword, AuditActivate, AuditDeactivate,
		AuditUpdateStatus:
		return true
	}
	return false
}

// ValidEntityType reports whether entityType is in the closed entity set.
func ValidEntityType(entityType string) bool {
	switch entityType {
	case EntityCompany, EntityUser, EntityCustomer, EntitySale:
		return true
	}
	return false
}

// AuditActionCount is the number of audit entries recorded for one action.
type AuditActionCount struct {
	Action string `db:"action" json:"action"`
	Count  int64  `db:"count" json:"count"`
}

// AuditSummary aggregates a tenant's audit activity over a window.
type AuditSummary struct {
	TotalEntries int64              `json:"total_entries"`
	ActiveUsers  int64              `json:"active_users"`
	ByAction     []AuditActionCount `json:"by_action"`
}
