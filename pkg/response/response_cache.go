package response

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"todotracker/internal/core/telemetry"
	. "todotracker/pkg"
	. "todotracker/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ResponseCache replays successful GET responses per caller. Routes without
// a TTL pass straight through.
type ResponseCache struct {
	entries *cache.Cache
	ttls    map[string]time.Duration
	logger  *zap.Logger
	metrics *telemetry.AppMetrics
	mu      sync.RWMutex
}

type snapshot struct {
	status   int
	header   http.Header
	body     []byte
	storedAt time.Time
}

func NewResponseCache(logger *zap.Logger, metrics *telemetry.AppMetrics) *ResponseCache {
	return &ResponseCache{
		entries: cache.New(5*time.Minute, 10*time.Minute),
		ttls: map[string]time.Duration{
			"/api/tags/suggest": 30 * time.Second,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// CacheRoute turns caching on for route, or off when ttl is zero.
func (rc *ResponseCache) CacheRoute(route string, ttl time.Duration) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if ttl <= 0 {
		delete(rc.ttls, route)
		return
	}
	rc.ttls[route] = ttl
}

func (rc *ResponseCache) ttlFor(route string) time.Duration {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.ttls[route]
}

func (rc *ResponseCache) CacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		ttl := rc.ttlFor(route)

		if c.Request.Method != http.MethodGet || ttl == 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := callerPrefix(c) + route + "?" + c.Request.URL.RawQuery

		if v, found := rc.entries.Get(key); found {
			snap := v.(snapshot)
			age := time.Since(snap.storedAt)

			_, span := CreateChildSpan(ctx, "cache.response.hit", []attribute.KeyValue{
				attribute.String("cache.route", route),
				attribute.Int64("cache.age_ms", age.Milliseconds()),
			})
			defer span.End()

			rc.metrics.RecordCacheHit(ctx, route)
			rc.logger.Debug("Response served from cache", zap.String("key", key), zap.Duration("age", age))

			for name, values := range snap.header {
				for _, v := range values {
					c.Header(name, v)
				}
			}
			c.Header("X-Cache", "HIT")
			c.Header("X-Cache-Age", strconv.Itoa(int(age.Seconds())))
			c.Data(snap.status, snap.header.Get("Content-Type"), snap.body)
			c.Abort()
			return
		}

		_, span := CreateChildSpan(ctx, "cache.response.miss", []attribute.KeyValue{
			attribute.String("cache.route", route),
		})
		defer span.End()

		rc.metrics.RecordCacheMiss(ctx, route)

		recorder := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Header("X-Cache", "MISS")

		c.Next()

		if status := recorder.Status(); status >= 200 && status < 300 {
			header := recorder.Header().Clone()
			header.Del("X-Cache")

			rc.entries.Set(key, snapshot{
				status:   status,
				header:   header,
				body:     bytes.Clone(recorder.buf.Bytes()),
				storedAt: time.Now(),
			}, ttl)
		}
	}
}

// callerPrefix scopes keys to the authenticated user, or the client IP when
// the route is public.
func callerPrefix(c *gin.Context) string {
	if id, ok := c.Get("x-user-id"); ok {
		return fmt.Sprintf("user_%v|", id)
	}
	return "ip_" + GetClientIP(c) + "|"
}

// InvalidateCache drops every cached response of one user.
func (rc *ResponseCache) InvalidateCache(userID int) {
	prefix := fmt.Sprintf("user_%d|", userID)

	dropped := 0
	for key := range rc.entries.Items() {
		if strings.HasPrefix(key, prefix) {
			rc.entries.Delete(key)
			dropped++
		}
	}

	rc.logger.Debug("Response cache invalidated", zap.Int("user_id", userID), zap.Int("dropped", dropped))
}

func (rc *ResponseCache) Size() int {
	return rc.entries.ItemCount()
}

type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(data []byte) (int, error) {
	w.buf.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
