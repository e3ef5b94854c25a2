package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/TWRT/taskdesk/internal/models"
	"github.com/TWRT/taskdesk/internal/repository"
)

var (
	ErrTaskNotFound = errors.New("Task not found")
	ErrForbidden    = errors.New("Not authorized")
)

const (
	ActionCreateTask = "CREATE_TASK"
	ActionUpdateTask = "UPDATE_TASK"
	ActionCommented  = "COMMENTED"
)

type TaskService struct {
	tasks         *repository.TaskRepository
	comments      *repository.CommentRepository
	activityLogs  *repository.ActivityLogRepository
	users         *repository.UserRepository
	notifications *NotificationService
	logger        *slog.Logger
}

func NewTaskService(
	tasks *repository.TaskRepository,
	comments *repository.CommentRepository,
	activityLogs *repository.ActivityLogRepository,
	users *repository.UserRepository,
	notifications *NotificationService,
	logger *slog.Logger,
) *TaskService {
	return &TaskService{
		tasks:         tasks,
		comments:      comments,
		activityLogs:  activityLogs,
		users:         users,
		notifications: notifications,
		logger:        logger,
	}
}

func isOwnerRole(u repository.User) bool {
	return u.Role == RoleOwner
}

func canView(u repository.User, t models.Task) bool {
	return isOwnerRole(u) || t.OwnerID == u.ID || (t.AssignedToID != nil && *t.AssignedToID == u.ID)
}

func (s *TaskService) logActivity(ctx context.Context, userID int64, action string, taskID int64, details string) error {
	return s.activityLogs.Create(ctx, &models.HistoryEntry{
		UserID:     userID,
		Action:     action,
		EntityType: repository.EntityTask,
		EntityID:   taskID,
		Details:    &details,
	})
}

// List returns every task for owners and the own or assigned tasks of members.
// Listing also sends any due-date reminders that are owed.
func (s *TaskService) List(ctx context.Context, actor repository.User, filter models.TaskFilter) ([]models.Task, error) {
	s.remindDueDates(ctx)

	q := repository.TaskQuery{TaskFilter: filter}
	if !isOwnerRole(actor) {
		q.VisibleTo = actor.ID
	}
	return s.tasks.List(ctx, q)
}

func (s *TaskService) remindDueDates(ctx context.Context) {
	open, err := s.tasks.ListOpenWithDueDate(ctx)
	if err == nil {
		_, err = s.notifications.CheckDueDates(ctx, open)
	}
	if err != nil {
		s.logger.Warn("due date reminders failed", "error", err)
	}
}

func (s *TaskService) Get(ctx context.Context, actor repository.User, id int64) (models.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, err
	}
	if !canView(actor, task) {
		return models.Task{}, ErrForbidden
	}
	return task, nil
}

func (s *TaskService) checkAssignee(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.users.GetByID(ctx, *id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.ValidationError{Field: "assigned_to_id", Message: "Assigned user does not exist"}
		}
		return err
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, actor repository.User, in models.TaskInput) (models.Task, error) {
	if err := in.Normalize(); err != nil {
		return models.Task{}, err
	}
	if err := s.checkAssignee(ctx, in.AssignedToID); err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		Title:        in.Title,
		Description:  in.Description,
		Status:       in.Status,
		DueDate:      utcDate(in.DueDate),
		AssignedToID: in.AssignedToID,
		OwnerID:      actor.ID,
	}
	id, err := s.tasks.Create(ctx, &task)
	if err != nil {
		return models.Task{}, err
	}
	s.logger.Info("task created", "task_id", id, "user_id", actor.ID)

	if err := s.logActivity(ctx, actor.ID, ActionCreateTask, id, fmt.Sprintf("Created task '%s'", task.Title)); err != nil {
		return models.Task{}, err
	}

	created, err := s.tasks.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if created.AssignedToID != nil && *created.AssignedToID != actor.ID {
		if err := s.notifications.TaskAssigned(ctx, created, *created.AssignedToID, actor); err != nil {
			return models.Task{}, err
		}
	}
	return created, nil
}

// Update applies the fields present in patch and records one history entry
// listing every changed field as "field: old -> new".
func (s *TaskService) Update(ctx context.Context, actor repository.User, id int64, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Normalize(); err != nil {
		return models.Task{}, err
	}
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := s.checkAssignee(ctx, patch.AssignedToID.Ptr()); err != nil {
		return models.Task{}, err
	}

	previousAssignee := task.AssignedToID
	var changes []string
	if patch.Title != nil && *patch.Title != task.Title {
		changes = append(changes, change("title", task.Title, *patch.Title))
		task.Title = *patch.Title
	}
	if patch.Description.Present {
		next := patch.Description.Ptr()
		if optString(task.Description) != optString(next) {
			changes = append(changes, change("description", optString(task.Description), optString(next)))
			task.Description = next
		}
	}
	if patch.Status != nil && *patch.Status != task.Status {
		changes = append(changes, change("status", string(task.Status), string(*patch.Status)))
		task.Status = *patch.Status
	}
	if patch.DueDate.Present {
		next := utcDate(patch.DueDate.Ptr())
		if optTime(task.DueDate) != optTime(next) {
			changes = append(changes, change("due_date", optTime(task.DueDate), optTime(next)))
			task.DueDate = next
		}
	}
	if patch.AssignedToID.Present {
		next := patch.AssignedToID.Ptr()
		if optInt(task.AssignedToID) != optInt(next) {
			changes = append(changes, change("assigned_to_id", optInt(task.AssignedToID), optInt(next)))
			task.AssignedToID = next
		}
	}

	if len(changes) == 0 {
		return task, nil
	}

	if err := s.tasks.Update(ctx, &task); err != nil {
		return models.Task{}, err
	}
	if err := s.logActivity(ctx, actor.ID, ActionUpdateTask, task.ID, strings.Join(changes, ", ")); err != nil {
		return models.Task{}, err
	}
	s.logger.Info("task updated", "task_id", task.ID, "user_id", actor.ID, "changes", len(changes))

	updated, err := s.tasks.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	newAssignee := updated.AssignedToID
	if patch.AssignedToID.Valid && newAssignee != nil && *newAssignee != actor.ID &&
		optInt(previousAssignee) != optInt(newAssignee) {
		if err := s.notifications.TaskAssigned(ctx, updated, *newAssignee, actor); err != nil {
			return models.Task{}, err
		}
	}
	if err := s.notifications.TaskUpdated(ctx, updated, actor); err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// Delete is limited to the task's creator and users with the owner role.
func (s *TaskService) Delete(ctx context.Context, actor repository.User, id int64) error {
	task, err := s.tasks.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	if err != nil {
		return err
	}
	if !isOwnerRole(actor) && task.OwnerID != actor.ID {
		s.logger.Warn("delete rejected", "task_id", id, "user_id", actor.ID)
		return ErrForbidden
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task deleted", "task_id", id, "user_id", actor.ID)
	return nil
}

func (s *TaskService) AddComment(ctx context.Context, actor repository.User, taskID int64, in models.CommentInput) (models.Comment, error) {
	if err := in.Normalize(); err != nil {
		return models.Comment{}, err
	}
	task, err := s.Get(ctx, actor, taskID)
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{TaskID: taskID, UserID: actor.ID, Content: in.Content}
	if err := s.comments.Create(ctx, &comment); err != nil {
		return models.Comment{}, err
	}
	if err := s.logActivity(ctx, actor.ID, ActionCommented, taskID, fmt.Sprintf("Comment ID %d", comment.ID)); err != nil {
		return models.Comment{}, err
	}
	if err := s.notifications.TaskCommented(ctx, task, actor); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

func (s *TaskService) Comments(ctx context.Context, actor repository.User, taskID int64) ([]models.Comment, error) {
	if _, err := s.Get(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return s.comments.ListByTask(ctx, taskID)
}

func (s *TaskService) History(ctx context.Context, actor repository.User, taskID int64) ([]models.HistoryEntry, error) {
	if _, err := s.Get(ctx, actor, taskID); err != nil {
		return nil, err
	}
	return s.activityLogs.ListByEntity(ctx, repository.EntityTask, taskID)
}

func change(field, from, to string) string {
	return fmt.Sprintf("%s: %s -> %s", field, from, to)
}

func optString(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

func optInt(n *int64) string {
	if n == nil {
		return "None"
	}
	return strconv.FormatInt(*n, 10)
}

func optTime(t *time.Time) string {
	if t == nil {
		return "None"
	}
	return t.Format(time.DateTime)
}

func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
