package query

type MutationKind string

const (
	CreateTask               MutationKind = "create_task"
	UpdateTask               MutationKind = "update_task"
	UpdateTaskStatus         MutationKind = "update_task_status"
	DeleteTask               MutationKind = "delete_task"
	AddComment               MutationKind = "add_comment"
	MarkNotificationRead     MutationKind = "mark_notification_read"
	MarkAllNotificationsRead MutationKind = "mark_all_notifications_read"
	DeleteNotification       MutationKind = "delete_notification"
)

// dependencies maps each mutation to the key prefixes it makes stale. Every
// task list variant is dropped on any task write regardless of filters; writes
// on a single task also drop its detail entries because the server appends a
// history entry.
var dependencies = map[MutationKind]func(taskID int64) []Key{
	CreateTask: func(int64) []Key {
		return []Key{TaskKeys.Lists()}
	},
	UpdateTask: func(id int64) []Key {
		return []Key{TaskKeys.Lists(), TaskKeys.Detail(id)}
	},
	UpdateTaskStatus: func(id int64) []Key {
		return []Key{TaskKeys.Lists(), TaskKeys.Detail(id)}
	},
	DeleteTask: func(id int64) []Key {
		return []Key{TaskKeys.Lists(), TaskKeys.Detail(id)}
	},
	AddComment: func(id int64) []Key {
		return []Key{TaskKeys.Detail(id)}
	},
	MarkNotificationRead: func(int64) []Key {
		return []Key{NotificationKeys.All()}
	},
	MarkAllNotificationsRead: func(int64) []Key {
		return []Key{NotificationKeys.All()}
	},
	DeleteNotification: func(int64) []Key {
		return []Key{NotificationKeys.All()}
	},
}

// Invalidates returns the prefixes a successful mutation of the given kind
// marks stale. taskID is ignored by mutations that are not task-scoped.
func Invalidates(kind MutationKind, taskID int64) []Key {
	deps, ok := dependencies[kind]
	if !ok {
		return nil
	}
	return deps(taskID)
}
