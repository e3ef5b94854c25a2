package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/TWRT/taskdesk/internal/api"
	"github.com/TWRT/taskdesk/internal/repository"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the taskdesk REST server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.cfg.ServerReady(); err != nil {
				return err
			}
			logger := e.logger(cmd.ErrOrStderr())
			if !e.verbose {
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			}

			db, err := repository.InitDB(e.cfg.ServerDB)
			if err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer db.Close()

			srv := &http.Server{
				Addr:              e.cfg.ListenAddr,
				Handler:           api.SetupRouter(db, api.ServerConfig{JWTSecret: e.cfg.JWTSecret, TokenTTL: e.cfg.TokenTTL}, logger),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx := cmd.Context()
			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", "addr", srv.Addr, "db", e.cfg.ServerDB)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
