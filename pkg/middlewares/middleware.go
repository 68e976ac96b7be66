package middlewares

import (
	"strconv"
	"time"

	"todotracker/internal/adapter/http/middleware"
	"todotracker/internal/core/telemetry"
	. "todotracker/pkg/config"
	. "todotracker/pkg/response"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func MetricsMiddleware(metrics *telemetry.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveConnections(c.Request.Context())
		defer metrics.DecrementActiveConnections(c.Request.Context())

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// GroupMiddleware holds the handlers that need the authenticated caller and
// are therefore attached per route group instead of globally.
type GroupMiddleware struct {
	RateLimit gin.HandlerFunc
	Cache     *ResponseCache
}

// Cached returns the response cache middleware, or a pass-through when the
// cache is disabled.
func (g *GroupMiddleware) Cached() gin.HandlerFunc {
	if g.Cache == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return g.Cache.CacheMiddleware()
}

func SetupGinMiddlewareWithConfig(router *gin.Engine, metrics *telemetry.AppMetrics, logger *LokiLogger, config *AppConfig) {
	router.Use(gin.Recovery())

	httpsEnforcer := NewHTTPSEnforcer(config.EnforceHTTPS, logger.Zap())
	router.Use(httpsEnforcer.HTTPSMiddleware())

	router.Use(otelgin.Middleware(logger.ServiceName()))
	router.Use(middleware.CurrentMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(MetricsMiddleware(metrics))
}

func NewGroupMiddleware(metrics *telemetry.AppMetrics, logger *LokiLogger, config *AppConfig) *GroupMiddleware {
	group := &GroupMiddleware{
		RateLimit: func(c *gin.Context) { c.Next() },
	}

	if config.RateLimitEnabled {
		group.RateLimit = NewRateLimiter(logger.Zap(), metrics).RateLimitMiddleware()
	}

	if config.CacheEnabled {
		group.Cache = NewResponseCache(logger.Zap(), metrics)
	}

	return group
}
