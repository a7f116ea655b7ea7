package models

import (
	"os"
	"regexp"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Company predicates
// ---------------------------------------------------------------------------

func TestCompany_IsActive(t *testing.T) {
	c := &Company{Status: CompanyActive}
	if !c.IsActive() {
		t.Error("IsActive() should be true for an active company")
	}
	for _, status := range []string{CompanySuspended, CompanyCancelled} {
		c := &Company{Status: status}
		if c.IsActive() {
			t.Errorf("IsActive() should be false for status %q", status)
		}
	}
}

func TestValidPlan(t *testing.T) {
	for _, plan := range []string{PlanFree, PlanBasic, PlanPremium, PlanEnterprise} {
		if !ValidPlan(plan) {
			t.Errorf("ValidPlan(%q) = false, want true", plan)
		}
	}
	for _, plan := range []string{"", "free", "gold", "FREE"} {
		if ValidPlan(plan) {
			t.Errorf("ValidPlan(%q) = true, want false", plan)
		}
	}
}

func TestValidCompanyStatus(t *testing.T) {
	for _, status := range []string{CompanyActive, CompanySuspended, CompanyCancelled} {
		if !ValidCompanyStatus(status) {
			t.Errorf("ValidCompanyStatus(%q) = false, want true", status)
		}
	}
	if ValidCompanyStatus("deleted") {
		t.Error(`ValidCompanyStatus("deleted") = true, want false`)
	}
}

// ---------------------------------------------------------------------------
// User predicates
// ---------------------------------------------------------------------------

func TestUser_IsActive(t *testing.T) {
	u := &User{Status: UserActive}
	if !u.IsActive() {
		t.Error("IsActive() should be true for an active user")
	}
	u = &User{Status: UserInactive}
	if u.IsActive() {
		t.Error("IsActive() should be false for an inactive user")
	}
}

func TestUser_IsAdmin(t *testing.T) {
	u := &User{Role: RoleAdmin}
	if !u.IsAdmin() {
		t.Error("IsAdmin() should be true for the admin role")
	}
	u = &User{Role: RoleStaff}
	if u.IsAdmin() {
		t.Error("IsAdmin() should be false for the staff role")
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleStaff} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "superuser", "Admin"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true, want false", role)
		}
	}
}

// ---------------------------------------------------------------------------
// Customer / sale predicates
// ---------------------------------------------------------------------------

func TestValidCustomerStatus(t *testing.T) {
	for _, status := range []string{CustomerActive, CustomerInactive} {
		if !ValidCustomerStatus(status) {
			t.Errorf("ValidCustomerStatus(%q) = false, want true", status)
		}
	}
	if ValidCustomerStatus("archived") {
		t.Error(`ValidCustomerStatus("archived") = true, want false`)
	}
}

func TestValidSaleStatus(t *testing.T) {
	for _, status := range []string{SalePending, SalePaid, SaleCancelled} {
		if !ValidSaleStatus(status) {
			t.Errorf("ValidSaleStatus(%q) = false, want true", status)
		}
	}
	for _, status := range []string{"", "refunded", "Paid"} {
		if ValidSaleStatus(status) {
			t.Errorf("ValidSaleStatus(%q) = true, want false", status)
		}
	}
}

// ---------------------------------------------------------------------------
// Audit predicates
// ---------------------------------------------------------------------------

func TestValidAuditAction(t *testing.T) {
	actions := []string{
		AuditCreate, AuditUpdate, AuditDelete, AuditLogin, AuditLogout,
		AuditRegister, AuditChangePassword, AuditActivate, AuditDeactivate,
		AuditUpdateStatus,
	}
	for _, action := range actions {
		if !ValidAuditAction(action) {
			t.Errorf("ValidAuditAction(%q) = false, want true", action)
		}
	}
	if ValidAuditAction("export") {
		t.Error(`ValidAuditAction("export") = true, want false`)
	}
}

func TestValidEntityType(t *testing.T) {
	for _, entity := range []string{EntityCompany, EntityUser, EntityCustomer, EntitySale} {
		if !ValidEntityType(entity) {
			t.Errorf("ValidEntityType(%q) = false, want true", entity)
		}
	}
	if ValidEntityType("invoice") {
		t.Error(`ValidEntityType("invoice") = true, want false`)
	}
}

// ---------------------------------------------------------------------------
// Constants vs. schema CHECK lists
// ---------------------------------------------------------------------------
// The enum constants above are written to the database verbatim, so each one
// must appear in the corresponding CHECK constraint of the initial migration.
// A mismatch (e.g. a title-case constant against a lowercase CHECK list)
// makes every INSERT of that value fail with a check_violation at runtime.

func initSchema(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile("../migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("read initial migration: %v", err)
	}
	return string(raw)
}

// schemaCheckList extracts the quoted values of the CHECK (column IN (...))
// constraint for one column of one CREATE TABLE block.
func schemaCheckList(t *testing.T, schema, table, column string) map[string]bool {
	t.Helper()
	start := strings.Index(schema, "CREATE TABLE "+table+" (")
	if start < 0 {
		t.Fatalf("table %s not found in initial migration", table)
	}
	block := schema[start:]
	if end := strings.Index(block, ";"); end >= 0 {
		block = block[:end]
	}
	re := regexp.MustCompile(`CHECK \(` + column + ` IN \(([^)]*)\)\)`)
	m := re.FindStringSubmatch(block)
	if m == nil {
		t.Fatalf("no CHECK constraint for %s.%s in initial migration", table, column)
	}
	values := make(map[string]bool)
	for _, v := range strings.Split(m[1], ",") {
		values[strings.Trim(strings.TrimSpace(v), "'")] = true
	}
	return values
}

func assertConstantsMatchCheck(t *testing.T, table, column string, constants []string) {
	t.Helper()
	allowed := schemaCheckList(t, initSchema(t), table, column)
	for _, c := range constants {
		if !allowed[c] {
			t.Errorf("constant %q not in %s.%s CHECK list %v; inserts with it fail", c, table, column, allowed)
		}
	}
	if len(allowed) != len(constants) {
		t.Errorf("%s.%s CHECK list has %d values, code defines %d constants", table, column, len(allowed), len(constants))
	}
}

func TestPlanConstantsMatchSchema(t *testing.T) {
	assertConstantsMatchCheck(t, "companies", "plan",
		[]string{PlanFree, PlanBasic, PlanPremium, PlanEnterprise})
}

func TestCompanyStatusConstantsMatchSchema(t *testing.T) {
	assertConstantsMatchCheck(t, "companies", "status",
		[]string{CompanyActive, CompanySuspended, CompanyCancelled})
}

func TestRoleConstantsMatchSchema(t *testing.T) {
	assertConstantsMatchCheck(t, "users", "role", []string{RoleAdmin, RoleStaff})
}

func TestUserStatusConstantsMatchSchema(t *testing.T) {
	assertConstantsMatchCheck(t, "users", "status", []string{UserActive, UserInactive})
}

func TestCustomerStatusConstantsMatchSchema(t *testing.T) {
	assertConstantsMatchCheck(t, "customers", "status", []string{CustomerActive, CustomerInactive})
}

func TestSaleStatusConstantsMatchSchema(t *testing.T) {
	assertConstantsMatchCheck(t, "sales", "status", []string{SalePending, SalePaid, SaleCancelled})
}

func TestPlanDefaultIsFree(t *testing.T) {
	schema := initSchema(t)
	re := regexp.MustCompile(`plan VARCHAR\(20\) NOT NULL DEFAULT '([^']*)'`)
	m := re.FindStringSubmatch(schema)
	if m == nil {
		t.Fatal("companies.plan DEFAULT not found in initial migration")
	}
	if m[1] != PlanFree {
		t.Errorf("companies.plan DEFAULT = %q, want %q", m[1], PlanFree)
	}
}
