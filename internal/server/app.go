// Package server initializes and runs the annotation backend: database,
// repositories, services and the HTTP API, with graceful shutdown on
// SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/versemark/versemark/internal/logging"
	"github.com/versemark/versemark/internal/server/auth"
	"github.com/versemark/versemark/internal/server/config"
	"github.com/versemark/versemark/internal/server/httpapi"
	"github.com/versemark/versemark/internal/server/services"
	"github.com/versemark/versemark/internal/server/shared/db"
)

type App struct {
	config *config.Config
	logger logging.Logger
	slog   *slog.Logger
	repos  db.RepositoryManager
	api    *httpapi.API
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	repos, err := db.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	tokens := auth.NewManager(cfg.SecretKey, cfg.TokenValidity)
	api := httpapi.New(
		services.NewUserService(repos.Users(), tokens),
		services.NewAnnotationService(repos.Annotations()),
		tokens,
	)

	return &App{config: cfg, logger: logger, slog: slogger, repos: repos, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	e := app.api.NewEcho(app.slog)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http api", "addr", app.config.ListenAddr)
		errCh <- e.Start(app.config.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "shutdown error", "err", err)
		}
	}

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "err", err)
	}
	return nil
}
