package client

import (
	"context"

	"github.com/TWRT/taskdesk/internal/models"
)

type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.Token, error)
	Register(ctx context.Context, reg models.Registration) (*models.User, error)
}

type TaskAPI interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Get(ctx context.Context, id int64) (*models.Task, error)
	Create(ctx context.Context, in models.TaskInput) (*models.Task, error)
	Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
}

type CommentAPI interface {
	AddComment(ctx context.Context, taskID int64, content string) (*models.Comment, error)
	Comments(ctx context.Context, taskID int64) ([]models.Comment, error)
}

type HistoryAPI interface {
	History(ctx context.Context, taskID int64) ([]models.HistoryEntry, error)
}

type UserAPI interface {
	List(ctx context.Context) ([]models.User, error)
}

type NotificationAPI interface {
	List(ctx context.Context, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context) (*models.MarkAllReadResult, error)
	Delete(ctx context.Context, id int64) error
}

// TaskProvider is everything the task views need from the server.
type TaskProvider interface {
	TaskAPI
	CommentAPI
	HistoryAPI
}
