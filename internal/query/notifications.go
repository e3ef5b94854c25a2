package query

import (
	"context"

	"github.com/TWRT/taskdesk/internal/client"
	"github.com/TWRT/taskdesk/internal/models"
)

type Notifications struct {
	cache    *Cache
	api      client.NotificationAPI
	notifier Notifier
}

func NewNotifications(cache *Cache, api client.NotificationAPI, notifier Notifier) *Notifications {
	return &Notifications{cache: cache, api: api, notifier: notifier}
}

func (n *Notifications) List(ctx context.Context, unreadOnly bool) Result[[]models.Notification] {
	return Fetch(ctx, n.cache, NotificationKeys.List(unreadOnly), NotificationStaleTime, func(ctx context.Context) ([]models.Notification, error) {
		return n.api.List(ctx, unreadOnly)
	})
}

func (n *Notifications) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	return Mutate(ctx, n.cache, n.notifier, Mutation{
		Kind:           MarkNotificationRead,
		FailureMessage: "Failed to mark notification as read",
	}, func(ctx context.Context) (*models.Notification, error) {
		return n.api.MarkRead(ctx, id)
	})
}

// MarkAllRead marks every notification read and returns how many changed.
// When the cache already knows there is nothing unread it returns without a
// request.
func (n *Notifications) MarkAllRead(ctx context.Context) (int, error) {
	if n.knownNoUnread() {
		return 0, nil
	}
	res, err := Mutate(ctx, n.cache, n.notifier, Mutation{
		Kind:           MarkAllNotificationsRead,
		SuccessMessage: "All notifications marked as read",
		FailureMessage: "Failed to mark all notifications",
	}, n.api.MarkAllRead)
	if err != nil {
		return 0, err
	}
	return res.MarkedAsRead, nil
}

func (n *Notifications) knownNoUnread() bool {
	if unread, ok := Peek[[]models.Notification](n.cache, NotificationKeys.List(true), NotificationStaleTime); ok {
		return len(unread) == 0
	}
	all, ok := Peek[[]models.Notification](n.cache, NotificationKeys.List(false), NotificationStaleTime)
	if !ok {
		return false
	}
	for _, item := range all {
		if !item.IsRead {
			return false
		}
	}
	return true
}

func (n *Notifications) Delete(ctx context.Context, id int64) error {
	_, err := Mutate(ctx, n.cache, n.notifier, Mutation{
		Kind:           DeleteNotification,
		SuccessMessage: "Notification deleted",
		FailureMessage: "Failed to delete notification",
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, n.api.Delete(ctx, id)
	})
	return err
}
