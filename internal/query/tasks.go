package query

import (
	"context"

	"github.com/TWRT/taskdesk/internal/client"
	"github.com/TWRT/taskdesk/internal/models"
	"golang.org/x/sync/errgroup"
)

type Tasks struct {
	cache    *Cache
	api      client.TaskProvider
	notifier Notifier
}

func NewTasks(cache *Cache, api client.TaskProvider, notifier Notifier) *Tasks {
	return &Tasks{cache: cache, api: api, notifier: notifier}
}

func (t *Tasks) List(ctx context.Context, filter models.TaskFilter) Result[[]models.Task] {
	return Fetch(ctx, t.cache, TaskKeys.List(filter), TaskListStaleTime, func(ctx context.Context) ([]models.Task, error) {
		return t.api.List(ctx, filter)
	})
}

func (t *Tasks) Get(ctx context.Context, id int64) Result[*models.Task] {
	return Fetch(ctx, t.cache, TaskKeys.Task(id), DetailStaleTime, func(ctx context.Context) (*models.Task, error) {
		return t.api.Get(ctx, id)
	})
}

func (t *Tasks) Comments(ctx context.Context, id int64) Result[[]models.Comment] {
	return Fetch(ctx, t.cache, TaskKeys.Comments(id), DetailStaleTime, func(ctx context.Context) ([]models.Comment, error) {
		return t.api.Comments(ctx, id)
	})
}

func (t *Tasks) History(ctx context.Context, id int64) Result[[]models.HistoryEntry] {
	return Fetch(ctx, t.cache, TaskKeys.History(id), DetailStaleTime, func(ctx context.Context) ([]models.HistoryEntry, error) {
		return t.api.History(ctx, id)
	})
}

type TaskDetails struct {
	Comments Result[[]models.Comment]
	History  Result[[]models.HistoryEntry]
}

// Details loads comments and history concurrently.
func (t *Tasks) Details(ctx context.Context, id int64) (TaskDetails, error) {
	var details TaskDetails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		details.Comments = t.Comments(gctx, id)
		return details.Comments.Err
	})
	g.Go(func() error {
		details.History = t.History(gctx, id)
		return details.History.Err
	})
	err := g.Wait()
	return details, err
}

func (t *Tasks) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return Mutate(ctx, t.cache, t.notifier, Mutation{
		Kind:           CreateTask,
		SuccessMessage: "Task created successfully",
		FailureMessage: "Error creating task",
	}, func(ctx context.Context) (*models.Task, error) {
		return t.api.Create(ctx, in)
	})
}

func (t *Tasks) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Normalize(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, &models.ValidationError{Field: "patch", Message: "Nothing to update"}
	}
	return Mutate(ctx, t.cache, t.notifier, Mutation{
		Kind:           UpdateTask,
		TaskID:         id,
		SuccessMessage: "Task updated successfully",
		FailureMessage: "Error updating task",
	}, func(ctx context.Context) (*models.Task, error) {
		return t.api.Update(ctx, id, patch)
	})
}

func (t *Tasks) SetStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, &models.ValidationError{Field: "status", Message: "unknown status " + string(status)}
	}
	return Mutate(ctx, t.cache, t.notifier, Mutation{
		Kind:           UpdateTaskStatus,
		TaskID:         id,
		SuccessMessage: "Status updated",
		FailureMessage: "Failed to update status",
	}, func(ctx context.Context) (*models.Task, error) {
		return t.api.Update(ctx, id, models.TaskPatch{Status: &status})
	})
}

func (t *Tasks) Delete(ctx context.Context, id int64) error {
	_, err := Mutate(ctx, t.cache, t.notifier, Mutation{
		Kind:           DeleteTask,
		TaskID:         id,
		SuccessMessage: "Task deleted",
		FailureMessage: "Error deleting task (Only Owner/Creator can delete)",
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.api.Delete(ctx, id)
	})
	return err
}

func (t *Tasks) AddComment(ctx context.Context, id int64, content string) (*models.Comment, error) {
	in := models.CommentInput{Content: content}
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	return Mutate(ctx, t.cache, t.notifier, Mutation{
		Kind:           AddComment,
		TaskID:         id,
		SuccessMessage: "Comment added",
		FailureMessage: "Failed to add comment",
	}, func(ctx context.Context) (*models.Comment, error) {
		return t.api.AddComment(ctx, id, in.Content)
	})
}
