package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TWRT/taskdesk/internal/models"
	"github.com/TWRT/taskdesk/internal/repository"
)

const (
	NotificationTaskAssigned = "task_assigned"
	NotificationTaskComment  = "task_comment"
	NotificationTaskUpdated  = "task_updated"
	NotificationDueSoon      = "due_soon"
	NotificationOverdue      = "overdue"

	dueSoonWindow    = 3 * 24 * time.Hour
	reminderCooldown = 24 * time.Hour
)

type NotificationService struct {
	notifications *repository.NotificationRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewNotificationService(notifications *repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger, now: time.Now}
}

func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) (models.Notification, error) {
	return s.notifications.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID int64) error {
	return s.notifications.Delete(ctx, id, userID)
}

func (s *NotificationService) notify(ctx context.Context, userID int64, task models.Task, kind, title, message string) error {
	taskID := task.ID
	n := &models.Notification{
		UserID:    userID,
		TaskID:    &taskID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return err
	}
	s.logger.Info("notification created", "type", kind, "user_id", userID, "task_id", task.ID)
	return nil
}

func (s *NotificationService) TaskAssigned(ctx context.Context, task models.Task, assignee int64, assigner repository.User) error {
	return s.notify(ctx, assignee, task, NotificationTaskAssigned, "New Task Assigned",
		fmt.Sprintf("%s assigned you the task: %s", assigner.Username, task.Title))
}

// TaskCommented notifies the owner and the assignee, skipping the commenter.
func (s *NotificationService) TaskCommented(ctx context.Context, task models.Task, commenter repository.User) error {
	message := fmt.Sprintf("%s commented on: %s", commenter.Username, task.Title)
	if task.OwnerID != commenter.ID {
		if err := s.notify(ctx, task.OwnerID, task, NotificationTaskComment, "New Comment", message); err != nil {
			return err
		}
	}
	if task.AssignedToID != nil && *task.AssignedToID != commenter.ID && *task.AssignedToID != task.OwnerID {
		if err := s.notify(ctx, *task.AssignedToID, task, NotificationTaskComment, "New Comment", message); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotificationService) TaskUpdated(ctx context.Context, task models.Task, updater repository.User) error {
	if task.AssignedToID == nil || *task.AssignedToID == updater.ID {
		return nil
	}
	return s.notify(ctx, *task.AssignedToID, task, NotificationTaskUpdated, "Task Updated",
		fmt.Sprintf("%s updated the task: %s", updater.Username, task.Title))
}

// CheckDueDates sends an overdue or due-soon reminder for each task to its
// owner and assignee, at most once per task per cooldown. It returns how many
// notifications were created.
func (s *NotificationService) CheckDueDates(ctx context.Context, tasks []models.Task) (int, error) {
	now := s.now().UTC()
	created := 0
	for _, task := range tasks {
		if task.DueDate == nil || task.Status == models.StatusDone {
			continue
		}
		due := task.DueDate.UTC()

		var kind, title, message string
		switch {
		case due.Before(now):
			kind, title = NotificationOverdue, "Task Overdue"
			message = fmt.Sprintf("Task '%s' is overdue!", task.Title)
		case !due.After(now.Add(dueSoonWindow)):
			kind, title = NotificationDueSoon, "Task Due Soon"
			days := int(due.Sub(now) / (24 * time.Hour))
			message = fmt.Sprintf("Task '%s' is due in %d day(s)", task.Title, days)
		default:
			continue
		}

		last, ok, err := s.notifications.LatestForTask(ctx, task.ID, NotificationDueSoon, NotificationOverdue)
		if err != nil {
			return created, err
		}
		if ok && !last.Before(now.Add(-reminderCooldown)) {
			continue
		}

		recipients := []int64{task.OwnerID}
		if task.AssignedToID != nil && *task.AssignedToID != task.OwnerID {
			recipients = append(recipients, *task.AssignedToID)
		}
		for _, userID := range recipients {
			if err := s.notify(ctx, userID, task, kind, title, message); err != nil {
				return created, err
			}
			created++
		}
	}
	if created > 0 {
		s.logger.Info("due date reminders created", "count", created)
	}
	return created, nil
}
