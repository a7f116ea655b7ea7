// user_repository.go implements UserRepository. All reads and writes except the
// credential lookup and the auth re-fetch are scoped by company_id so a user id
// from another tenant behaves exactly like a nonexistent one.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/corebiz/corebiz/internal/db/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new user within a company
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (company_id, email, password_hash, full_name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		user.CompanyID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
}

// GetUserByID retrieves a user by ID within a company
func (r *UserRepository) GetUserByID(ctx context.Context, companyID, userID int64) (*models.User, error) {
	query := `
		SELECT id, company_id, email, password_hash, full_name, role, status, created_at, updated_at
		FROM users
		WHERE id = $1 AND company_id = $2
	`

	user := &models.User{}
	err := r.db.GetContext(ctx, user, query, userID, companyID)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserWithCompanyByID retrieves a user joined with their company. Used by
// the auth middleware to re-check user and company liveness on every request.
func (r *UserRepository) GetUserWithCompanyByID(ctx context.Context, userID int64) (*models.UserWithCompany, error) {
	query := `
		SELECT u.id, u.company_id, u.email, u.password_hash, u.full_name, u.role, u.status,
		       u.created_at, u.updated_at,
		       c.name AS company_name, c.status AS company_status
		FROM users u
		JOIN companies c ON u.company_id = c.id
		WHERE u.id = $1
	`

	user := &models.UserWithCompany{}
	err := r.db.GetContext(ctx, user, query, userID)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUsersWithCompanyByEmail retrieves all users matching an email, joined with
// their companies. Emails are unique per tenant, not globally, so a login email
// can match a user in more than one company; credential verification tries each
// candidate's password hash.
func (r *UserRepository) GetUsersWithCompanyByEmail(ctx context.Context, email string) ([]*models.UserWithCompany, error) {
	query := `
		SELECT u.id, u.company_id, u.email, u.password_hash, u.full_name, u.role, u.status,
		       u.created_at, u.updated_at,
		       c.name AS company_name, c.status AS company_status
		FROM users u
		JOIN companies c ON u.company_id = c.id
		WHERE u.email = $1
		ORDER BY u.id
	`

	users := make([]*models.UserWithCompany, 0)
	err := r.db.SelectContext(ctx, &users, query, email)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// ListUsers retrieves all users of a company, newest first
func (r *UserRepository) ListUsers(ctx context.Context, companyID int64) ([]*models.User, error) {
	query := `
		SELECT id, company_id, email, password_hash, full_name, role, status, created_at, updated_at
		FROM users
		WHERE company_id = $1
		ORDER BY created_at DESC
	`

	users := make([]*models.User, 0)
	err := r.db.SelectContext(ctx, &users, query, companyID)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// UpdateUser updates a user's profile fields within a company.
// Returns sql.ErrNoRows if the user does not exist in that company.
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET email = $3, full_name = $4, role = $5, updated_at = $6
		WHERE id = $1 AND company_id = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.CompanyID,
		user.Email,
		user.FullName,
		user.Role,
		user.UpdatedAt,
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

// UpdateUserStatus sets a user's status within a company.
// Returns sql.ErrNoRows if the user does not exist in that company.
func (r *UserRepository) UpdateUserStatus(ctx context.Context, companyID, userID int64, status string) error {
	query := `
		UPDATE users
		SET status = $3, updated_at = $4
		WHERE id = $1 AND company_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, userID, companyID, status, time.Now())
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

// UpdateUserPassword replaces a user's password hash
func (r *UserRepository) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, passwordHash, time.Now())
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
