package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TWRT/taskdesk/internal/models"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, user_id, task_id, type, title, message, is_read, created_at`

func scanNotification(row interface{ Scan(...any) error }) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.TaskID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	return n, err
}

// Create stores n, stamping it with the current time unless CreatedAt is set.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.CreatedAt = n.CreatedAt.UTC()
	result, err := r.db.ExecContext(ctx, `
	INSERT INTO notifications (user_id, task_id, type, title, message, is_read, created_at)
        VALUES (?, ?, ?, ?, ?, 0, ?)
	`, n.UserID, n.TaskID, n.Type, n.Title, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	n.ID, err = result.LastInsertId()
	return err
}

// LatestForTask returns when the newest notification of one of the given
// types was created for the task.
func (r *NotificationRepository) LatestForTask(ctx context.Context, taskID int64, types ...string) (time.Time, bool, error) {
	if len(types) == 0 {
		return time.Time{}, false, nil
	}
	args := []any{taskID}
	for _, t := range types {
		args = append(args, t)
	}
	query := `SELECT created_at FROM notifications WHERE task_id = ? AND type IN (?` +
		strings.Repeat(", ?", len(types)-1) + `) ORDER BY created_at DESC, id DESC LIMIT 1`

	var created time.Time
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest notification for task %d: %w", taskID, err)
	}
	return created, true, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead marks one of the user's notifications read. ErrNotFound covers
// notifications owned by someone else.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) (models.Notification, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return models.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.Notification{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notification{}, ErrNotFound
	}
	return n, err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
