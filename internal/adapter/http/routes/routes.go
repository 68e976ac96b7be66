package routes

import (
	"todotracker/internal/adapter/http/handler"
	"todotracker/internal/core/domain"
	"todotracker/internal/core/telemetry"
	"todotracker/pkg/auth"
	. "todotracker/pkg/config"
	"todotracker/pkg/middlewares"

	"github.com/gin-gonic/gin"
)

type HandlersConfig struct {
	AuthHandler   *handler.AuthHandler
	TodoHandler   *handler.TodoHandler
	TagHandler    *handler.TagHandler
	PushHandler   *handler.PushHandler
	AdminHandler  *handler.AdminHandler
	HealthHandler *handler.HealthHandler
}

func SetupRouterWithConfig(handlers HandlersConfig, group *middlewares.GroupMiddleware, jwt *auth.JWT, metrics *telemetry.AppMetrics, logger *LokiLogger, config *AppConfig) *gin.Engine {
	router := gin.New()

	middlewares.SetupGinMiddlewareWithConfig(router, metrics, logger, config)

	router.Use(corsMiddleware())

	registerRoutes(router, handlers, group, jwt)

	return router
}

// SetupRouterForTests skips the global middleware stack (tracing, metrics,
// request logging) but keeps authentication and rate limiting per group.
func SetupRouterForTests(handlers HandlersConfig, group *middlewares.GroupMiddleware, jwt *auth.JWT) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	registerRoutes(router, handlers, group, jwt)

	return router
}

func registerRoutes(router *gin.Engine, handlers HandlersConfig, group *middlewares.GroupMiddleware, jwt *auth.JWT) {
	api := router.Group("/api")

	public := api.Group("/", group.RateLimit)
	{
		if handlers.AuthHandler != nil {
			public.POST("/auth/register", handlers.AuthHandler.Register)
			public.POST("/auth/login", handlers.AuthHandler.Login)
			public.POST("/auth/reset-password", handlers.AuthHandler.ResetPassword)
		}

		if handlers.HealthHandler != nil {
			public.GET("/db-health", handlers.HealthHandler.DBHealth)
		}

		if handlers.PushHandler != nil {
			public.GET("/push/vapid-public-key", handlers.PushHandler.VapidPublicKey)
		}
	}

	protected := api.Group("/", jwt.GinJwtMiddleware(), group.RateLimit)
	{
		if h := handlers.TodoHandler; h != nil {
			protected.GET("/todos", h.GetAllTodos)
			protected.POST("/todos", h.CreateTodo)
			protected.GET("/todos/:id", h.GetTodo)
			protected.PUT("/todos/:id", h.UpdateTodo)
			protected.DELETE("/todos/:id", h.DeleteTodo)
		}

		if h := handlers.TagHandler; h != nil {
			protected.GET("/tags/suggest", group.Cached(), h.Suggest)
		}

		if h := handlers.PushHandler; h != nil {
			protected.POST("/push/subscribe", h.Subscribe)
			protected.POST("/push/unsubscribe", h.Unsubscribe)
			protected.GET("/push/subscriptions", h.Subscriptions)
			protected.GET("/push/status", h.Status)
		}
	}

	if h := handlers.AdminHandler; h != nil {
		admin := api.Group("/", jwt.GinJwtMiddleware(), auth.RequireRole(string(domain.RoleAdmin)), group.RateLimit)
		{
			admin.GET("/admin/pending-users", h.PendingUsers)
			admin.GET("/admin/all-users", h.AllUsers)
			admin.POST("/admin/approve-user/:id", h.ApproveUser)
			admin.DELETE("/admin/users/:id", h.DeleteUser)
			admin.POST("/auth/approve/:username", h.ApproveByUsername)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
