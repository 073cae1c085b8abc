package database

import (
	"fmt"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/ctxutil"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

// CreateAuditLog records one audit entry. Pass the transaction of the change
// being audited so the entry commits or rolls back with it.
func CreateAuditLog(tx *gorm.DB, userID uint, entity string, entityID uint, action, details string) error {
	record := models.AuditLog{
		UserID:    userID,
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Details:   details,
		RequestID: ctxutil.RequestIDFromContext(tx.Statement.Context),
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// AuditFilter narrows ListAuditLogs; zero values are ignored.
type AuditFilter struct {
	Entity   string
	EntityID uint
	UserID   uint
	Action   string
	Since    time.Time
	Limit    uint64
}

// ListAuditLogs returns matching entries, newest first.
func ListAuditLogs(db *gorm.DB, f AuditFilter) ([]models.AuditLog, error) {
	q := sq.Select("id", "created_at", "user_id", "entity", "entity_id", "action", "details", "request_id").
		From("audit_logs")

	if f.Entity != "" {
		q = q.Where(sq.Eq{"entity": f.Entity})
	}
	if f.EntityID != 0 {
		q = q.Where(sq.Eq{"entity_id": f.EntityID})
	}
	if f.UserID != 0 {
		q = q.Where(sq.Eq{"user_id": f.UserID})
	}
	if f.Action != "" {
		q = q.Where(sq.Eq{"action": f.Action})
	}
	if !f.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": f.Since})
	}

	limit := f.Limit
	if limit == 0 || limit > 200 {
		limit = 200
	}
	q = q.OrderBy("created_at DESC", "id DESC").Limit(limit)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit query: %w", err)
	}

	var logs []models.AuditLog
	if err := db.Raw(sqlStr, args...).Scan(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
