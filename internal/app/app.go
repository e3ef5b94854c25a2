// Package app wires the transport, session and synchronization layers into
// the object views work with.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/TWRT/taskdesk/internal/client"
	"github.com/TWRT/taskdesk/internal/models"
	"github.com/TWRT/taskdesk/internal/query"
	"github.com/TWRT/taskdesk/internal/session"
)

type Options struct {
	BaseURL     string
	Storage     session.Storage
	Notifier    query.Notifier
	Logger      *slog.Logger
	HTTPTimeout time.Duration
	CacheSize   int
	// OnSignedOut runs after the server rejected the session, in place of a
	// redirect to the login screen.
	OnSignedOut func()
}

type App struct {
	Client        *client.Client
	Session       *session.Manager
	Cache         *query.Cache
	Tasks         *query.Tasks
	Users         *query.Users
	Notifications *query.Notifications

	auth *client.AuthService
}

func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = query.LogNotifier{Logger: logger}
	}
	timeout := opts.HTTPTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	c := client.NewClient(opts.BaseURL, client.WithTimeout(timeout), client.WithLogger(logger))
	auth := client.NewAuthService(c)
	tasks := client.NewTaskService(c)

	cache, err := query.NewCache(opts.CacheSize, query.WithLogger(logger), query.WithRefreshTimeout(timeout))
	if err != nil {
		return nil, err
	}

	sess := session.NewManager(auth, opts.Storage, logger)
	c.SetTokenSource(sess)
	c.OnSessionInvalidated(sess.Invalidate)
	sess.OnSignedOut(cache.Clear)
	if opts.OnSignedOut != nil {
		sess.OnSignedOut(opts.OnSignedOut)
	}

	if err := sess.Restore(); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	return &App{
		Client:        c,
		Session:       sess,
		Cache:         cache,
		Tasks:         query.NewTasks(cache, tasks, notifier),
		Users:         query.NewUsers(cache, client.NewUserService(c)),
		Notifications: query.NewNotifications(cache, client.NewNotificationService(c), notifier),
		auth:          auth,
	}, nil
}

func (a *App) Login(ctx context.Context, username, password string) error {
	a.Cache.Clear()
	return a.Session.Login(ctx, username, password)
}

func (a *App) Logout() error {
	a.Cache.Clear()
	return a.Session.Logout()
}

func (a *App) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if err := reg.Normalize(); err != nil {
		return nil, err
	}
	return a.auth.Register(ctx, reg)
}
