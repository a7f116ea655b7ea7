// audit_repository.go implements AuditRepository. The audit_logs table is
// append-only: entries are written once and queried with filters, never
// updated or deleted.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/corebiz/corebiz/internal/db/models"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters contains filters for querying audit logs. Tenant scoping is
// mandatory and passed separately.
type AuditFilters struct {
	UserID     *int64
	Action     *string
	EntityType *string
	StartDate  *time.Time
	EndDate    *time.Time
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	log.CreatedAt = time.Now()

	var detailsJSON []byte
	var err error
	if log.Details != nil {
		detailsJSON, err = json.Marshal(log.Details)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (company_id, user_id, action, entity_type, entity_id, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		log.CompanyID,
		log.UserID,
		log.Action,
		log.EntityType,
		log.EntityID,
		detailsJSON,
		log.IPAddress,
		log.CreatedAt,
	).Scan(&log.ID)
}

const auditWithUserSelect = `
	SELECT a.id, a.company_id, a.user_id, a.action, a.entity_type, a.entity_id,
	       a.details, a.ip_address, a.created_at,
	       u.full_name, u.email
	FROM audit_logs a
	LEFT JOIN users u ON a.user_id = u.id
`

func scanAuditLogWithUser(scan func(dest ...interface{}) error) (*models.AuditLogWithUser, error) {
	log := &models.AuditLogWithUser{}
	var detailsJSON []byte

	err := scan(
		&log.ID,
		&log.CompanyID,
		&log.UserID,
		&log.Action,
		&log.EntityType,
		&log.EntityID,
		&detailsJSON,
		&log.IPAddress,
		&log.CreatedAt,
		&log.UserName,
		&log.UserEmail,
	)
	if err != nil {
		return nil, err
	}

	if detailsJSON != nil {
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			return nil, err
		}
	}

	return log, nil
}

// ListAuditLogs retrieves a company's audit logs with optional filters and
// pagination, newest first
func (r *AuditRepository) ListAuditLogs(ctx context.Context, companyID int64, filters AuditFilters, limit, offset int) ([]*models.AuditLogWithUser, int, error) {
	countQuery := `SELECT COUNT(*) FROM audit_logs a WHERE a.company_id = $1`
	query := auditWithUserSelect + ` WHERE a.company_id = $1`

	args := []interface{}{companyID}
	paramIndex := 2

	if filters.UserID != nil {
		countQuery += fmt.Sprintf(` AND a.user_id = $%d`, paramIndex)
		query += fmt.Sprintf(` AND a.user_id = $%d`, paramIndex)
		args = append(args, *filters.UserID)
		paramIndex++
	}

	if filters.Action != nil {
		countQuery += fmt.Sprintf(` AND a.action = $%d`, paramIndex)
		query += fmt.Sprintf(` AND a.action = $%d`, paramIndex)
		args = append(args, *filters.Action)
		paramIndex++
	}

	if filters.EntityType != nil {
		countQuery += fmt.Sprintf(` AND a.entity_type = $%d`, paramIndex)
		query += fmt.Sprintf(` AND a.entity_type = $%d`, paramIndex)
		args = append(args, *filters.EntityType)
		paramIndex++
	}

	if filters.StartDate != nil {
		countQuery += fmt.Sprintf(` AND a.created_at >= $%d`, paramIndex)
		query += fmt.Sprintf(` AND a.created_at >= $%d`, paramIndex)
		args = append(args, *filters.StartDate)
		paramIndex++
	}

	if filters.EndDate != nil {
		countQuery += fmt.Sprintf(` AND a.created_at <= $%d`, paramIndex)
		query += fmt.Sprintf(` AND a.created_at <= $%d`, paramIndex)
		args = append(args, *filters.EndDate)
		paramIndex++
	}

	var total int
	err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]*models.AuditLogWithUser, 0)
	for rows.Next() {
		log, err := scanAuditLogWithUser(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, log)
	}

	return logs, total, rows.Err()
}

// GetAuditLogByID retrieves a single audit log entry by ID within a company
func (r *AuditRepository) GetAuditLogByID(ctx context.Context, companyID, logID int64) (*models.AuditLogWithUser, error) {
	query := auditWithUserSelect + ` WHERE a.id = $1 AND a.company_id = $2`

	log, err := scanAuditLogWithUser(r.db.QueryRowContext(ctx, query, logID, companyID).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return log, nil
}

// GetAuditSummary aggregates a company's audit activity since the given time
func (r *AuditRepository) GetAuditSummary(ctx context.Context, companyID int64, since time.Time) (*models.AuditSummary, error) {
	summary := &models.AuditSummary{}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_id)
		FROM audit_logs
		WHERE company_id = $1 AND created_at >= $2
	`, companyID, since).Scan(&summary.TotalEntries, &summary.ActiveUsers)
	if err != nil {
		return nil, err
	}

	byAction := make([]models.AuditActionCount, 0)
	err = r.db.SelectContext(ctx, &byAction, `
		SELECT action, COUNT(*) AS count
		FROM audit_logs
		WHERE company_id = $1 AND created_at >= $2
		GROUP BY action
		ORDER BY count DESC
	`, companyID, since)
	if err != nil {
		return nil, err
	}

	summary.ByAction = byAction
	return summary, nil
}
