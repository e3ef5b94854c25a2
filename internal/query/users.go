package query

import (
	"context"
	"fmt"

	"github.com/TWRT/taskdesk/internal/client"
	"github.com/TWRT/taskdesk/internal/models"
)

type Users struct {
	cache *Cache
	api   client.UserAPI
}

func NewUsers(cache *Cache, api client.UserAPI) *Users {
	return &Users{cache: cache, api: api}
}

func (u *Users) List(ctx context.Context) Result[[]models.User] {
	return Fetch(ctx, u.cache, UserKeys.List(), UserListStaleTime, u.api.List)
}

// Names fetches the user list once and returns a resolver for rendering
// many rows. Unknown ids fall back to a placeholder instead of failing the
// view.
func (u *Users) Names(ctx context.Context) func(id *int64) string {
	res := u.List(ctx)
	names := make(map[int64]string, len(res.Data))
	for _, user := range res.Data {
		names[user.ID] = user.Username
	}
	return func(id *int64) string {
		if id == nil {
			return "Unassigned"
		}
		if name, ok := names[*id]; ok {
			return name
		}
		return fmt.Sprintf("User #%d", *id)
	}
}
