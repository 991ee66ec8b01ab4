// Package app wires the diary components together and manages their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/diary/internal/auth"
	"github.com/edgard/diary/internal/config"
	"github.com/edgard/diary/internal/database"
	"github.com/edgard/diary/internal/diary"
	"github.com/edgard/diary/internal/greentext"
	"github.com/edgard/diary/internal/httpapi"
	"github.com/edgard/diary/internal/metrics"
	"github.com/edgard/diary/internal/render"
	"github.com/edgard/diary/internal/scheduler"
	"github.com/edgard/diary/internal/scheduler/tasks"
	"github.com/edgard/diary/internal/server"
)

// App owns every long-lived component.
type App struct {
	logger    *slog.Logger
	cfg       *config.Config
	db        *sqlx.DB
	server    *server.Server
	scheduler *scheduler.Scheduler
}

// New opens the database and builds the HTTP stack and the scheduler.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a, err := build(ctx, cfg, logger, db)
	if err != nil {
		database.CloseDB(db)
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sqlx.DB) (*App, error) {
	store := database.NewStore(db, logger)
	m := metrics.New()

	generator, err := greentext.NewGenerator(ctx, cfg.Greentext, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create greentext generator: %w", err)
	}
	transformer := greentext.NewTransformer(generator, logger,
		greentext.WithTimeout(cfg.Greentext.Timeout),
		greentext.WithRecorder(m),
	)

	board, err := render.NewBoard(cfg.Render.BoardTitle)
	if err != nil {
		return nil, err
	}

	admin := auth.NewAdmin(cfg.Admin, logger)
	if !admin.Enabled() {
		logger.Info("Admin credentials not configured, clear command disabled")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Service:       diary.NewService(store, transformer, logger, diary.WithCounter(m)),
		Admin:         admin,
		Board:         board,
		Health:        store,
		Metrics:       m,
		Location:      cfg.Render.Location(),
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Logger:        logger,
	})

	sched, err := scheduler.NewScheduler(logger, cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: logger,
		Store:  store,
	}))
	if err != nil {
		return nil, err
	}

	return &App{
		logger:    logger.With("component", "app"),
		cfg:       cfg,
		db:        db,
		server:    server.New(cfg.Server.Port, cfg.Server.ShutdownTimeout, router, logger),
		scheduler: sched,
	}, nil
}

// Run serves HTTP and runs the scheduler until ctx is cancelled or either
// fails, then closes the database.
func (a *App) Run(ctx context.Context) error {
	defer database.CloseDB(a.db)
	a.logger.Info("Starting diary service", "port", a.cfg.Server.Port)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Run(gCtx); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if _, err := a.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Diary service stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Diary service stopped gracefully")
	return nil
}
