package query

import (
	"context"
	"log/slog"
)

// Notifier surfaces the outcome of a write to the user.
type Notifier interface {
	Success(message string)
	Failure(message string, err error)
}

type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Success(message string) {
	n.Logger.Info(message)
}

func (n LogNotifier) Failure(message string, err error) {
	n.Logger.Error(message, "error", err)
}

type Mutation struct {
	Kind MutationKind
	// TaskID scopes task-level invalidations; zero for other mutations.
	TaskID         int64
	SuccessMessage string
	FailureMessage string
}

// Mutate runs fn once. On success every key prefix the mutation depends on is
// invalidated before the success notification; on failure the cache is left
// untouched and the failure is reported exactly once.
func Mutate[T any](ctx context.Context, c *Cache, n Notifier, m Mutation, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		if m.FailureMessage != "" {
			n.Failure(m.FailureMessage, err)
		}
		return v, err
	}
	c.Invalidate(Invalidates(m.Kind, m.TaskID)...)
	if m.SuccessMessage != "" {
		n.Success(m.SuccessMessage)
	}
	return v, nil
}
