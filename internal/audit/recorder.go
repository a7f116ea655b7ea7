// recorder.go implements the audit Recorder: handlers call Record after an
// operation succeeds, and the entry is persisted and shipped in the background.
// Recording is strictly best-effort — it runs outside the operation's
// transaction, never blocks the response, and failures are logged and counted
// but never surfaced to the caller.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/corebiz/corebiz/internal/db/models"
	"github.com/corebiz/corebiz/internal/safego"
	"github.com/corebiz/corebiz/internal/telemetry"
)

// recordTimeout bounds the background write so a wedged database cannot pile
// up audit goroutines indefinitely.
const recordTimeout = 5 * time.Second

// Store is the subset of the audit repository the recorder needs.
type Store interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Entry describes one auditable event.
type Entry struct {
	CompanyID  int64
	UserID     *int64
	Action     string
	EntityType string
	EntityID   *int64
	IPAddress  string
	Details    map[string]interface{}
}

// Recorder writes audit entries to the database and optionally ships them to
// external destinations.
type Recorder struct {
	store   Store
	shipper Shipper
	enabled bool
}

// NewRecorder creates a Recorder. shipper may be nil when no external shipping
// is configured.
func NewRecorder(store Store, shipper Shipper, enabled bool) *Recorder {
	return &Recorder{
		store:   store,
		shipper: shipper,
		enabled: enabled,
	}
}

// Record persists an audit entry in the background. It returns immediately;
// the caller's request is never delayed or failed by audit recording.
func (r *Recorder) Record(e Entry) {
	if r == nil || !r.enabled {
		return
	}

	safego.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		r.record(ctx, e)
	})
}

// record does the actual write and ship. Separated from Record so tests can
// run it synchronously.
func (r *Recorder) record(ctx context.Context, e Entry) {
	log := &models.AuditLog{
		CompanyID: e.CompanyID,
		UserID:    e.UserID,
		Action:    e.Action,
		Details:   e.Details,
	}
	if e.EntityType != "" {
		log.EntityType = &e.EntityType
	}
	if e.EntityID != nil {
		log.EntityID = e.EntityID
	}
	if e.IPAddress != "" {
		log.IPAddress = &e.IPAddress
	}

	if err := r.store.CreateAuditLog(ctx, log); err != nil {
		telemetry.AuditEntriesDroppedTotal.Inc()
		slog.Error("failed to write audit log",
			"action", e.Action,
			"company_id", e.CompanyID,
			"error", err,
		)
	} else {
		telemetry.AuditEntriesWrittenTotal.WithLabelValues(e.Action).Inc()
	}

	if r.shipper == nil {
		return
	}

	entry := &LogEntry{
		Timestamp:  log.CreatedAt,
		CompanyID:  e.CompanyID,
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		IPAddress:  e.IPAddress,
		Details:    e.Details,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := r.shipper.Ship(ctx, entry); err != nil {
		slog.Warn("failed to ship audit entry", "action", e.Action, "error", err)
	}
}
