// Package query is the client-side data synchronization layer. Reads are
// served from a keyed cache and revalidated when stale; writes invalidate
// every cached read they can affect once the server has confirmed them.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheSize      = 256
	DefaultRefreshTimeout = 30 * time.Second
)

type entry struct {
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	invalidated bool
	// gen changes on every invalidation. A fetch only commits while the
	// generation it started under is still current.
	gen uint64
}

type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[Key, *entry]
	seq     uint64

	group          singleflight.Group
	refreshes      sync.WaitGroup
	refreshTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Cache) { c.refreshTimeout = d }
}

func NewCache(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[Key, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	c := &Cache{
		entries:        entries,
		refreshTimeout: DefaultRefreshTimeout,
		now:            time.Now,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Result is what a view renders for a key.
type Result[T any] struct {
	Data      T
	HasData   bool
	Err       error
	UpdatedAt time.Time
	// Stale reports that Data is not known to be current: the freshness
	// window passed, the key was invalidated, or the last fetch failed.
	Stale bool
	// Refreshing reports that a background revalidation was started.
	Refreshing bool
}

// Fetch returns the cached value for key when it is younger than staleTime.
// An older value is returned immediately while a background refresh runs. A
// missing or invalidated value is fetched before returning; if that fetch
// fails, the previous value is still returned alongside the error.
func Fetch[T any](ctx context.Context, c *Cache, key Key, staleTime time.Duration, fn func(ctx context.Context) (T, error)) Result[T] {
	load := func(ctx context.Context) (any, error) { return fn(ctx) }

	c.mu.Lock()
	e := c.entryLocked(key)
	gen := e.gen
	if e.hasData && !e.invalidated {
		res := resultFrom[T](e)
		if c.now().Sub(e.updatedAt) < staleTime {
			c.mu.Unlock()
			return res
		}
		c.mu.Unlock()
		res.Stale = true
		res.Refreshing = true
		c.refreshInBackground(key, gen, load)
		return res
	}
	c.mu.Unlock()

	v, err := c.load(ctx, key, gen, load)
	if err == nil {
		data, _ := v.(T)
		return Result[T]{Data: data, HasData: true, UpdatedAt: c.now()}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	res := Result[T]{Err: err}
	if e, ok := c.entries.Peek(key); ok && e.hasData {
		res.Data, _ = e.data.(T)
		res.HasData = true
		res.UpdatedAt = e.updatedAt
		res.Stale = true
	}
	return res
}

// Peek returns the cached value for key without fetching, provided it is
// valid and younger than maxAge.
func Peek[T any](c *Cache, key Key, maxAge time.Duration) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	e, ok := c.entries.Peek(key)
	if !ok || !e.hasData || e.invalidated || e.err != nil {
		return zero, false
	}
	if c.now().Sub(e.updatedAt) >= maxAge {
		return zero, false
	}
	data, ok := e.data.(T)
	return data, ok
}

func resultFrom[T any](e *entry) Result[T] {
	data, _ := e.data.(T)
	return Result[T]{
		Data:      data,
		HasData:   e.hasData,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.err != nil,
	}
}

func (c *Cache) entryLocked(key Key) *entry {
	if e, ok := c.entries.Get(key); ok {
		return e
	}
	c.seq++
	e := &entry{gen: c.seq}
	c.entries.Add(key, e)
	return e
}

// load runs fn at most once per key and generation; concurrent callers share
// the result. The fetch itself is detached from the caller's cancellation so
// one caller giving up does not fail the others.
func (c *Cache) load(ctx context.Context, key Key, gen uint64, fn func(context.Context) (any, error)) (any, error) {
	flight := fmt.Sprintf("%s#%d", key, gen)
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		v, err := fn(detached)
		c.commit(key, gen, v, err)
		return v, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (c *Cache) commit(key Key, gen uint64, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Peek(key)
	if !ok || e.gen != gen {
		c.logger.Debug("discarding superseded fetch", "key", key)
		return
	}
	if err != nil {
		e.err = err
		return
	}
	e.data = v
	e.hasData = true
	e.err = nil
	e.invalidated = false
	e.updatedAt = c.now()
}

func (c *Cache) refreshInBackground(key Key, gen uint64, fn func(context.Context) (any, error)) {
	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()
		if _, err := c.load(ctx, key, gen, fn); err != nil {
			c.logger.Warn("background refresh failed", "key", key, "error", err)
		}
	}()
}

// Wait blocks until background refreshes started so far have finished.
func (c *Cache) Wait() {
	c.refreshes.Wait()
}

// Invalidate marks every entry under the given prefixes stale so the next
// read fetches before returning. In-flight fetches for those entries will not
// be committed.
func (c *Cache) Invalidate(prefixes ...Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, key := range c.entries.Keys() {
		for _, prefix := range prefixes {
			if !key.HasPrefix(prefix) {
				continue
			}
			e, ok := c.entries.Peek(key)
			if !ok {
				break
			}
			c.seq++
			e.gen = c.seq
			e.invalidated = true
			n++
			break
		}
	}
	if n > 0 {
		c.logger.Debug("invalidated queries", "prefixes", prefixes, "count", n)
	}
	return n
}

// Clear drops every entry, used when the session ends.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Purge()
}
