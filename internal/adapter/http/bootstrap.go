package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"todotracker/internal/adapter/database"
	"todotracker/internal/adapter/http/routes"
	"todotracker/internal/adapter/scheduler"
	"todotracker/internal/core/service"

	"go.uber.org/zap"
)

// Server owns the HTTP listener and the reminder schedule. Both start in
// Start and stop together in Shutdown.
type Server struct {
	deps      Dependencies
	container *Container
	scheduler *scheduler.Scheduler
	srv       *http.Server
}

func NewServer(db *database.DB, deps Dependencies) (*Server, error) {
	container := NewContainer(db, deps)

	router := routes.SetupRouterWithConfig(
		container.Handlers,
		container.Group,
		container.JWT,
		deps.Metrics,
		deps.Logger,
		deps.Config,
	)

	sched := scheduler.New(deps.Logger.Zap())

	if err := sched.Every("reminders", deps.Config.ReminderInterval, container.Reminders); err != nil {
		return nil, err
	}

	return &Server{
		deps:      deps,
		container: container,
		scheduler: sched,
		srv: &http.Server{
			Addr:         ":" + deps.Config.Port,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}, nil
}

func (s *Server) Container() *Container {
	return s.container
}

// Start seeds the configured administrator, starts the scheduler and then
// blocks serving HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.deps.Config
	logger := s.deps.Logger.Zap()

	if err := service.SeedAdmin(ctx, s.container.UserRepo, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	s.scheduler.Start()

	logger.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.Bool("rate_limit_enabled", cfg.RateLimitEnabled),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
		zap.Bool("https_enforced", cfg.EnforceHTTPS),
		zap.Bool("push_enabled", s.deps.Transport != nil),
		zap.Duration("reminder_interval", cfg.ReminderInterval),
	)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.scheduler.Stop(ctx)

	return err
}
