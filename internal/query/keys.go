package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TWRT/taskdesk/internal/models"
)

// Key identifies a cached query: a resource kind followed by its
// discriminators. Segments are escaped so prefix matching works on whole
// segments only.
type Key string

func NewKey(parts ...string) Key {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return Key(strings.Join(escaped, "/"))
}

func (k Key) With(parts ...string) Key {
	return Key(string(k) + "/" + string(NewKey(parts...)))
}

func (k Key) HasPrefix(prefix Key) bool {
	return k == prefix || strings.HasPrefix(string(k), string(prefix)+"/")
}

const (
	TaskListStaleTime     = 5 * time.Minute
	UserListStaleTime     = 60 * time.Minute
	NotificationStaleTime = 30 * time.Second
	// Detail sub-resources revalidate on every read.
	DetailStaleTime = 0
)

type taskKeys struct{}

var TaskKeys taskKeys

func (taskKeys) All() Key     { return NewKey("tasks") }
func (taskKeys) Lists() Key   { return TaskKeys.All().With("list") }
func (taskKeys) Details() Key { return TaskKeys.All().With("detail") }

func (taskKeys) List(filter models.TaskFilter) Key {
	return TaskKeys.Lists().With("status="+string(filter.Status), "search="+filter.Search)
}

func (taskKeys) Detail(id int64) Key {
	return TaskKeys.Details().With(strconv.FormatInt(id, 10))
}

func (taskKeys) Task(id int64) Key     { return TaskKeys.Detail(id).With("task") }
func (taskKeys) Comments(id int64) Key { return TaskKeys.Detail(id).With("comments") }
func (taskKeys) History(id int64) Key  { return TaskKeys.Detail(id).With("history") }

type userKeys struct{}

var UserKeys userKeys

func (userKeys) All() Key  { return NewKey("users") }
func (userKeys) List() Key { return UserKeys.All().With("list") }

type notificationKeys struct{}

var NotificationKeys notificationKeys

func (notificationKeys) All() Key { return NewKey("notifications") }

func (notificationKeys) List(unreadOnly bool) Key {
	return NotificationKeys.All().With("list", "unread="+strconv.FormatBool(unreadOnly))
}
