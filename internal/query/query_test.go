package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TWRT/taskdesk/internal/client"
	"github.com/TWRT/taskdesk/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (r *recorder) Success(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
}

func (r *recorder) Failure(message string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, message)
}

// fakeTasks is an in-memory task server that counts calls.
type fakeTasks struct {
	mu        sync.Mutex
	tasks     []models.Task
	nextID    int64
	listCalls int
	calls     map[string]int
	listErr   error
	deleteErr error
	// gate, when set, blocks List until it is closed.
	gate chan struct{}
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{nextID: 1, calls: map[string]int{}}
}

func (f *fakeTasks) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeTasks) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["list"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Task{}
	for _, t := range f.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTasks) Get(ctx context.Context, id int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["get"]++
	for _, t := range f.tasks {
		if t.ID == id {
			task := t
			return &task, nil
		}
	}
	return nil, &client.HTTPError{Status: 404, Detail: "Task not found"}
}

func (f *fakeTasks) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	task := models.Task{ID: f.nextID, Title: in.Title, Status: in.Status}
	f.nextID++
	f.tasks = append(f.tasks, task)
	return &task, nil
}

func (f *fakeTasks) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			if patch.Status != nil {
				f.tasks[i].Status = *patch.Status
			}
			if patch.Title != nil {
				f.tasks[i].Title = *patch.Title
			}
			task := f.tasks[i]
			return &task, nil
		}
	}
	return nil, &client.HTTPError{Status: 404, Detail: "Task not found"}
}

func (f *fakeTasks) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	return f.deleteErr
}

func (f *fakeTasks) AddComment(ctx context.Context, taskID int64, content string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["add_comment"]++
	return &models.Comment{ID: 1, TaskID: taskID, Content: content}, nil
}

func (f *fakeTasks) Comments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["comments"]++
	return []models.Comment{}, nil
}

func (f *fakeTasks) History(ctx context.Context, taskID int64) ([]models.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["history"]++
	return []models.HistoryEntry{}, nil
}

func newTestTasks(t *testing.T) (*Tasks, *fakeTasks, *fakeClock, *recorder, *Cache) {
	t.Helper()
	clock := newFakeClock()
	cache, err := NewCache(0, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	api := newFakeTasks()
	notes := &recorder{}
	return NewTasks(cache, api, notes), api, clock, notes, cache
}

func TestKeyPrefixMatchesWholeSegments(t *testing.T) {
	list := TaskKeys.List(models.TaskFilter{Status: models.StatusDone, Search: "a/b"})
	if !list.HasPrefix(TaskKeys.Lists()) {
		t.Fatalf("expected %q under %q", list, TaskKeys.Lists())
	}
	if TaskKeys.Detail(12).HasPrefix(TaskKeys.Detail(1)) {
		t.Fatalf("detail 12 must not match detail 1")
	}
	if !TaskKeys.Comments(1).HasPrefix(TaskKeys.Detail(1)) {
		t.Fatalf("comments should live under the task detail")
	}
	if NotificationKeys.List(true) == NotificationKeys.List(false) {
		t.Fatalf("unread and full lists must use different keys")
	}
}

func TestListIsServedFromCacheWhileFresh(t *testing.T) {
	tasks, api, clock, _, cache := newTestTasks(t)
	ctx := context.Background()

	first := tasks.List(ctx, models.TaskFilter{})
	if first.Err != nil || !first.HasData {
		t.Fatalf("first list: %+v", first)
	}
	clock.Advance(TaskListStaleTime - time.Second)
	second := tasks.List(ctx, models.TaskFilter{})
	if second.Stale || second.Refreshing {
		t.Fatalf("expected fresh result, got %+v", second)
	}
	if got := api.count("list"); got != 1 {
		t.Fatalf("expected 1 list call, got %d", got)
	}

	clock.Advance(2 * time.Second)
	third := tasks.List(ctx, models.TaskFilter{})
	if !third.HasData || !third.Refreshing {
		t.Fatalf("expected cached data with background refresh, got %+v", third)
	}
	cache.Wait()
	if got := api.count("list"); got != 2 {
		t.Fatalf("expected background refresh, got %d list calls", got)
	}
}

func TestTaskMutationRefetchesEveryListVariant(t *testing.T) {
	tasks, api, _, notes, _ := newTestTasks(t)
	ctx := context.Background()

	filters := []models.TaskFilter{
		{},
		{Status: models.StatusTodo},
		{Status: models.StatusDone, Search: "spec"},
	}
	for _, f := range filters {
		tasks.List(ctx, f)
	}
	before := api.count("list")

	created, err := tasks.Create(ctx, models.TaskInput{Title: "Write spec", Status: models.StatusTodo})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(notes.successes) != 1 || notes.successes[0] != "Task created successfully" {
		t.Fatalf("unexpected notifications: %v", notes.successes)
	}

	for _, f := range filters {
		res := tasks.List(ctx, f)
		if res.Stale || res.Refreshing {
			t.Fatalf("filter %+v: invalidated list must be refetched before display, got %+v", f, res)
		}
	}
	if got := api.count("list") - before; got != len(filters) {
		t.Fatalf("expected %d refetches, got %d", len(filters), got)
	}

	all := tasks.List(ctx, models.TaskFilter{})
	found := false
	for _, task := range all.Data {
		if task.ID == created.ID && task.Title == "Write spec" && task.Status == models.StatusTodo {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected created task in list, got %+v", all.Data)
	}
}

func TestStatusChangeInvalidatesListsAndDetail(t *testing.T) {
	tasks, api, _, _, cache := newTestTasks(t)
	ctx := context.Background()

	created, err := tasks.Create(ctx, models.TaskInput{Title: "t"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tasks.List(ctx, models.TaskFilter{})
	tasks.History(ctx, created.ID)
	cache.Wait()

	if _, err := tasks.SetStatus(ctx, created.ID, models.StatusDone); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if _, ok := Peek[[]models.Task](cache, TaskKeys.List(models.TaskFilter{}), time.Hour); ok {
		t.Fatalf("expected task list to be invalidated")
	}
	if _, ok := Peek[[]models.HistoryEntry](cache, TaskKeys.History(created.ID), time.Hour); ok {
		t.Fatalf("expected history to be invalidated")
	}

	res := tasks.List(ctx, models.TaskFilter{})
	if len(res.Data) != 1 || res.Data[0].Status != models.StatusDone {
		t.Fatalf("expected updated status, got %+v", res.Data)
	}
	if api.count("update") != 1 {
		t.Fatalf("expected one update call")
	}
}

func TestFailedMutationLeavesCacheUntouched(t *testing.T) {
	tasks, api, _, notes, _ := newTestTasks(t)
	ctx := context.Background()
	api.deleteErr = &client.HTTPError{Status: 403, Detail: "Not enough permissions"}

	tasks.List(ctx, models.TaskFilter{})
	err := tasks.Delete(ctx, 5)
	if !client.IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if len(notes.failures) != 1 || len(notes.successes) != 0 {
		t.Fatalf("expected exactly one failure notification, got %+v", notes)
	}
	if api.count("delete") != 1 {
		t.Fatalf("expected no retry, got %d delete calls", api.count("delete"))
	}

	res := tasks.List(ctx, models.TaskFilter{})
	if res.Stale || api.count("list") != 1 {
		t.Fatalf("expected cached list to stay valid, got %+v (%d calls)", res, api.count("list"))
	}
}

func TestBlankCommentIsRejectedBeforeNetwork(t *testing.T) {
	tasks, api, _, notes, _ := newTestTasks(t)

	_, err := tasks.AddComment(context.Background(), 1, "   \t")
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if api.count("add_comment") != 0 {
		t.Fatalf("expected no request")
	}
	if len(notes.failures) != 0 {
		t.Fatalf("validation faults are not toasts")
	}
}

func TestConcurrentReadsOfOneKeyShareOneRequest(t *testing.T) {
	tasks, api, _, _, _ := newTestTasks(t)
	api.gate = make(chan struct{})

	var wg sync.WaitGroup
	results := make([]Result[[]models.Task], 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = tasks.List(context.Background(), models.TaskFilter{})
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	if got := api.count("list"); got != 1 {
		t.Fatalf("expected 1 coalesced request, got %d", got)
	}
	for i, res := range results {
		if res.Err != nil || !res.HasData {
			t.Fatalf("reader %d: %+v", i, res)
		}
	}
}

func TestFetchStartedBeforeInvalidationIsNotCommitted(t *testing.T) {
	tasks, api, _, _, cache := newTestTasks(t)
	ctx := context.Background()
	api.gate = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		tasks.List(ctx, models.TaskFilter{})
	}()
	time.Sleep(20 * time.Millisecond)

	if _, err := tasks.Create(ctx, models.TaskInput{Title: "after"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	close(api.gate)
	<-done

	if _, ok := Peek[[]models.Task](cache, TaskKeys.List(models.TaskFilter{}), time.Hour); ok {
		t.Fatalf("a fetch started before the write must not be cached as current")
	}
	res := tasks.List(ctx, models.TaskFilter{})
	if len(res.Data) != 1 || res.Data[0].Title != "after" {
		t.Fatalf("expected post-write data, got %+v", res.Data)
	}
}

func TestReadFailureKeepsPreviousData(t *testing.T) {
	tasks, api, _, _, cache := newTestTasks(t)
	ctx := context.Background()

	if _, err := tasks.Create(ctx, models.TaskInput{Title: "kept"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	tasks.List(ctx, models.TaskFilter{})
	cache.Invalidate(TaskKeys.Lists())

	api.mu.Lock()
	api.listErr = errors.New("connection refused")
	api.mu.Unlock()

	res := tasks.List(ctx, models.TaskFilter{})
	if res.Err == nil {
		t.Fatalf("expected error")
	}
	if !res.HasData || !res.Stale || len(res.Data) != 1 {
		t.Fatalf("expected previous data to stay visible, got %+v", res)
	}
}

func TestDetailSubResourcesRevalidateOnEveryRead(t *testing.T) {
	tasks, api, _, _, cache := newTestTasks(t)
	ctx := context.Background()

	if _, err := tasks.Details(ctx, 3); err != nil {
		t.Fatalf("details: %v", err)
	}
	details, err := tasks.Details(ctx, 3)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if !details.Comments.HasData || !details.Comments.Refreshing {
		t.Fatalf("expected cached comments with refresh, got %+v", details.Comments)
	}
	cache.Wait()
	if api.count("comments") != 2 || api.count("history") != 2 {
		t.Fatalf("expected revalidation, got comments=%d history=%d", api.count("comments"), api.count("history"))
	}
}

func TestInvalidatesCoversOriginalDependencies(t *testing.T) {
	for _, kind := range []MutationKind{CreateTask, UpdateTask, UpdateTaskStatus, DeleteTask} {
		keys := Invalidates(kind, 7)
		if len(keys) == 0 || keys[0] != TaskKeys.Lists() {
			t.Fatalf("%s must invalidate task lists, got %v", kind, keys)
		}
	}
	if keys := Invalidates(AddComment, 7); len(keys) != 1 || keys[0] != TaskKeys.Detail(7) {
		t.Fatalf("add comment must invalidate the task detail, got %v", keys)
	}
	for _, kind := range []MutationKind{MarkNotificationRead, MarkAllNotificationsRead, DeleteNotification} {
		if keys := Invalidates(kind, 0); len(keys) != 1 || keys[0] != NotificationKeys.All() {
			t.Fatalf("%s must invalidate notifications, got %v", kind, keys)
		}
	}
}
