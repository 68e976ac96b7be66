package http

import (
	"time"

	"todotracker/internal/adapter/database"
	"todotracker/internal/adapter/database/repository"
	"todotracker/internal/adapter/http/handler"
	"todotracker/internal/adapter/http/routes"
	"todotracker/internal/core/port"
	"todotracker/internal/core/service"
	"todotracker/internal/core/telemetry"
	"todotracker/pkg/auth"
	"todotracker/pkg/config"
	"todotracker/pkg/middlewares"
)

type Dependencies struct {
	Config    *config.AppConfig
	Logger    *config.LokiLogger
	Metrics   *telemetry.AppMetrics
	Telemetry port.Telemetry
	// Nil disables push delivery.
	Transport port.PushTransport
	Lock      port.CycleLock
}

type Container struct {
	UserRepo port.UserRepository
	TodoRepo port.TodoRepository
	TagRepo  port.TagRepository
	PushRepo port.PushSubscriptionRepository

	AuthService   port.AuthService
	UserService   port.UserService
	TodoService   port.TodoService
	TagResolver   port.TagResolver
	Notifications port.NotificationDispatcher
	Reminders     *service.ReminderScanner

	JWT      *auth.JWT
	Group    *middlewares.GroupMiddleware
	Handlers routes.HandlersConfig
}

func NewContainer(db *database.DB, deps Dependencies) *Container {
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.NewNoOpProbe()
	}

	zapLogger := deps.Logger.Zap()

	userRepo := repository.NewUserRepository(db, deps.Telemetry)
	todoRepo := repository.NewTodoRepository(db, deps.Telemetry)
	tagRepo := repository.NewTagRepository(db, deps.Telemetry)
	pushRepo := repository.NewPushSubscriptionRepository(db, deps.Telemetry)

	tagResolver := service.NewTagResolver(tagRepo)
	notifications := service.NewNotificationDispatcher(pushRepo, deps.Transport, deps.Metrics, zapLogger)
	authSvc := service.NewAuthService(userRepo)
	userSvc := service.NewUserService(userRepo, notifications)
	todoSvc := service.NewTodoService(todoRepo, tagResolver, deps.Telemetry)

	// Two intervals, never below a minute.
	lockTTL := 2 * deps.Config.ReminderInterval
	if lockTTL < time.Minute {
		lockTTL = time.Minute
	}

	reminders := service.NewReminderScanner(todoRepo, userRepo, notifications, deps.Lock, lockTTL, deps.Metrics, zapLogger)

	jwt := auth.NewJWT(deps.Config.JWTSecret)
	group := middlewares.NewGroupMiddleware(deps.Metrics, deps.Logger, deps.Config)

	publicKey := ""
	if deps.Transport != nil {
		publicKey = deps.Config.Push.PublicKey
	}

	var invalidator handler.CacheInvalidator
	if group.Cache != nil {
		invalidator = group.Cache
	}

	return &Container{
		UserRepo: userRepo,
		TodoRepo: todoRepo,
		TagRepo:  tagRepo,
		PushRepo: pushRepo,

		AuthService:   authSvc,
		UserService:   userSvc,
		TodoService:   todoSvc,
		TagResolver:   tagResolver,
		Notifications: notifications,
		Reminders:     reminders,

		JWT:   jwt,
		Group: group,
		Handlers: routes.HandlersConfig{
			AuthHandler:   handler.NewAuthHandler(authSvc, jwt, deps.Logger),
			TodoHandler:   handler.NewTodoHandler(todoSvc, invalidator, deps.Logger),
			TagHandler:    handler.NewTagHandler(tagResolver),
			PushHandler:   handler.NewPushHandler(notifications, publicKey),
			AdminHandler:  handler.NewAdminHandler(userSvc, deps.Logger),
			HealthHandler: handler.NewHealthHandler(db, db.Dialect),
		},
	}
}
