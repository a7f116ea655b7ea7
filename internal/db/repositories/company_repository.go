// Package repositories implements the data access layer (repository pattern) for CoreBiz.
// Each repository type encapsulates all database queries for a domain entity.
// Handlers never issue SQL directly — all database access goes through this layer, which makes query logic testable in isolation and keeps tenant scoping in one place.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/corebiz/corebiz/internal/db/models"
)

// CompanyRepository handles company (tenant) database operations
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// RegisterCompanyAndAdmin creates a company and its first admin user in a
// single transaction. The unique constraint on companies.email is the
// authoritative duplicate guard; a violation rolls back both inserts and is
// reported via IsUniqueViolation.
func (r *CompanyRepository) RegisterCompanyAndAdmin(ctx context.Context, company *models.Company, admin *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	company.CreatedAt = now
	company.UpdatedAt = now

	err = tx.QueryRowContext(ctx, `
		INSERT INTO companies (name, email, phone, address, plan, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		company.Name,
		company.Email,
		company.Phone,
		company.Address,
		company.Plan,
		company.Status,
		company.CreatedAt,
		company.UpdatedAt,
	).Scan(&company.ID)
	if err != nil {
		return err
	}

	admin.CompanyID = company.ID
	admin.CreatedAt = now
	admin.UpdatedAt = now

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (company_id, email, password_hash, full_name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		admin.CompanyID,
		admin.Email,
		admin.PasswordHash,
		admin.FullName,
		admin.Role,
		admin.Status,
		admin.CreatedAt,
		admin.UpdatedAt,
	).Scan(&admin.ID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetCompanyByID retrieves a company by ID
func (r *CompanyRepository) GetCompanyByID(ctx context.Context, id int64) (*models.Company, error) {
	query := `
		SELECT id, name, email, phone, address, plan, status, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	company := &models.Company{}
	err := r.db.GetContext(ctx, company, query, id)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return company, nil
}

// GetCompanyByEmail retrieves a company by contact email
func (r *CompanyRepository) GetCompanyByEmail(ctx context.Context, email string) (*models.Company, error) {
	query := `
		SELECT id, name, email, phone, address, plan, status, created_at, updated_at
		FROM companies
		WHERE email = $1
	`

	company := &models.Company{}
	err := r.db.GetContext(ctx, company, query, email)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return company, nil
}

// UpdateCompany updates a company's profile fields. The contact email and plan
// are not changed here.
func (r *CompanyRepository) UpdateCompany(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now()

	query := `
		UPDATE companies
		SET name = $2, phone = $3, address = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		company.ID,
		company.Name,
		company.Phone,
		company.Address,
		company.UpdatedAt,
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

// UpdateCompanyStatus sets a company's status
func (r *CompanyRepository) UpdateCompanyStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE companies SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
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
