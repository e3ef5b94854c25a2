// Package cli exposes the client layers as a terminal front end and the
// reference REST server as the serve command.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TWRT/taskdesk/internal/app"
	"github.com/TWRT/taskdesk/internal/config"
	"github.com/TWRT/taskdesk/internal/repository"
)

type env struct {
	cfg     config.Config
	verbose bool

	store    *repository.KVStore
	app      *app.App
	notifier *printNotifier
}

func (e *env) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if e.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// open builds the client stack on first use, restoring any saved session.
func (e *env) open(cmd *cobra.Command) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	if err := os.MkdirAll(filepath.Dir(e.cfg.SessionDB), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	store, err := repository.OpenKVStore(e.cfg.SessionDB)
	if err != nil {
		return nil, err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	notifier := &printNotifier{out: out, errOut: errOut}
	a, err := app.New(app.Options{
		BaseURL:     e.cfg.APIURL,
		Storage:     store,
		Notifier:    notifier,
		Logger:      e.logger(errOut),
		HTTPTimeout: e.cfg.HTTPTimeout,
		OnSignedOut: func() {
			fmt.Fprintln(errOut, "Session expired. Run `taskdesk login` to sign in again.")
		},
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	e.store, e.app, e.notifier = store, a, notifier
	return a, nil
}

// authed is open plus a check that someone is signed in.
func (e *env) authed(cmd *cobra.Command) (*app.App, error) {
	a, err := e.open(cmd)
	if err != nil {
		return nil, err
	}
	if !a.Session.IsAuthenticated() {
		return nil, fmt.Errorf("not logged in, run `taskdesk login` first")
	}
	return a, nil
}

// finish turns the command's error into what main should report.
func (e *env) finish(err error) error {
	if e.notifier == nil {
		return err
	}
	return e.notifier.settle(err)
}

func (e *env) close() {
	if e.app != nil {
		e.app.Cache.Wait()
	}
	if e.store != nil {
		e.store.Close()
	}
}

func newRoot(cfg config.Config) (*cobra.Command, *env) {
	e := &env{cfg: cfg}

	root := &cobra.Command{
		Use:           "taskdesk",
		Short:         "Team task tracking from the terminal",
		Long:          `A client for the taskdesk REST API: sign in, manage tasks, comments and notifications, or run the server itself.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&e.cfg.APIURL, "api-url", cfg.APIURL, "base URL of the taskdesk server")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "log requests and cache activity")

	root.AddCommand(
		newServeCmd(e),
		newRegisterCmd(e),
		newLoginCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newUsersCmd(e),
		newTasksCmd(e),
		newNotificationsCmd(e),
	)
	return root, e
}

func Execute(ctx context.Context, cfg config.Config) error {
	root, e := newRoot(cfg)
	defer e.close()
	return e.finish(root.ExecuteContext(ctx))
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
