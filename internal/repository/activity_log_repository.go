package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/TWRT/taskdesk/internal/models"
)

const EntityTask = "task"

type ActivityLogRepository struct {
	db *sql.DB
}

func NewActivityLogRepository(db *sql.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, entry *models.HistoryEntry) error {
	entry.CreatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
	INSERT INTO activity_logs (user_id, action, entity_type, entity_id, details, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
	`,
		entry.UserID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	entry.ID, err = result.LastInsertId()
	return err
}

// ListByEntity returns the newest entries first.
func (r *ActivityLogRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]models.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, action, entity_type, entity_id, details, created_at
        FROM activity_logs WHERE entity_type = ? AND entity_id = ?
        ORDER BY created_at DESC, id DESC
	`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
