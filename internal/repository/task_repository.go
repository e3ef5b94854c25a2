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

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, status, due_date, owner_id, assigned_to_id, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.DueDate,
		&t.OwnerID,
		&t.AssignedToID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) (int64, error) {
	query := `
	INSERT INTO tasks (title, description, status, due_date, owner_id, assigned_to_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.DueDate,
		task.OwnerID,
		task.AssignedToID,
		now,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	return result.LastInsertId()
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (models.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

type TaskQuery struct {
	models.TaskFilter
	// VisibleTo restricts the result to tasks owned by or assigned to the
	// user. Zero lists every task.
	VisibleTo int64
}

func (r *TaskRepository) List(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	var (
		where []string
		args  []any
	)
	if q.VisibleTo != 0 {
		where = append(where, `(owner_id = ? OR assigned_to_id = ?)`)
		args = append(args, q.VisibleTo, q.VisibleTo)
	}
	if q.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, q.Status)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		where = append(where, `(title LIKE ? OR description LIKE ?)`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListOpenWithDueDate returns unfinished tasks that have a due date.
func (r *TaskRepository) ListOpenWithDueDate(ctx context.Context) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status != ? AND due_date IS NOT NULL ORDER BY id`,
		models.StatusDone)
	if err != nil {
		return nil, fmt.Errorf("list tasks with due dates: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
	UPDATE tasks SET title = ?, description = ?, status = ?, due_date = ?, assigned_to_id = ?, updated_at = ?
        WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.DueDate,
		task.AssignedToID,
		time.Now().UTC(),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
