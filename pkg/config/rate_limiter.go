package config

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"todotracker/internal/core/telemetry"
	. "todotracker/pkg"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// LimitPolicy caps a route at Requests per Window for each caller that
// Identify resolves to.
type LimitPolicy struct {
	Requests int
	Window   time.Duration
	Identify func(*gin.Context) string
}

const fallbackPolicy = "*"

type bucket struct {
	Used    int
	ResetAt time.Time
}

type RateLimiter struct {
	buckets  *cache.Cache
	policies map[string]LimitPolicy
	logger   *zap.Logger
	metrics  *telemetry.AppMetrics
	mu       sync.Mutex
}

func perIP(requests int) LimitPolicy {
	return LimitPolicy{Requests: requests, Window: time.Minute, Identify: GetClientIP}
}

func perUser(requests int) LimitPolicy {
	return LimitPolicy{Requests: requests, Window: time.Minute, Identify: callerIdentity}
}

func NewRateLimiter(logger *zap.Logger, metrics *telemetry.AppMetrics) *RateLimiter {
	return &RateLimiter{
		buckets: cache.New(5*time.Minute, 10*time.Minute),
		policies: map[string]LimitPolicy{
			"POST /api/auth/register":       perIP(5),
			"POST /api/auth/login":          perIP(10),
			"POST /api/auth/reset-password": perIP(5),
			"GET /api/todos":                perUser(100),
			"POST /api/todos":               perUser(20),
			"PUT /api/todos/:id":            perUser(30),
			"DELETE /api/todos/:id":         perUser(10),
			"GET /api/tags/suggest":         perUser(120),
			"POST /api/push/subscribe":      perUser(10),
			fallbackPolicy:                  perIP(60),
		},
		logger:  logger,
		metrics: metrics,
	}
}

// RateLimitMiddleware belongs after JWT on protected groups, otherwise every
// caller falls back to its IP.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeOf(c)
		policy := rl.policyFor(c.Request.Method + " " + route)

		caller := policy.Identify(c)
		key := "rate_limit:" + c.Request.Method + " " + route + ":" + caller

		allowed, remaining, resetAt := rl.take(key, policy)

		keyType := "ip"
		if strings.HasPrefix(caller, "user_") {
			keyType = "user"
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(policy.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if allowed {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), route, keyType)
			c.Next()
			return
		}

		rl.metrics.RecordRateLimitHit(c.Request.Context(), route, keyType)
		rl.logger.Warn("Rate limit exceeded",
			zap.String("route", route),
			zap.String("caller", caller),
			zap.Int("limit", policy.Requests))

		c.Header("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code": "RATE_LIMITED",
				"errors": []gin.H{{
					"field":   "request",
					"message": fmt.Sprintf("Too many requests. Limit: %d per %v", policy.Requests, policy.Window),
				}},
			},
		})
	}
}

func (rl *RateLimiter) policyFor(route string) LimitPolicy {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if p, ok := rl.policies[route]; ok {
		return p
	}
	return rl.policies[fallbackPolicy]
}

// take consumes one request from the caller's bucket.
func (rl *RateLimiter) take(key string, policy LimitPolicy) (bool, int, time.Time) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := bucket{ResetAt: now.Add(policy.Window)}
	if cached, found := rl.buckets.Get(key); found && now.Before(cached.(bucket).ResetAt) {
		b = cached.(bucket)
	}

	if b.Used >= policy.Requests {
		return false, 0, b.ResetAt
	}

	b.Used++
	rl.buckets.Set(key, b, time.Until(b.ResetAt))

	return true, policy.Requests - b.Used, b.ResetAt
}

// routeOf prefers the matched pattern so /api/todos/7 and /api/todos/8
// share a bucket. Unmatched todo paths get the same treatment by hand.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}

	parts := strings.Split(c.Request.URL.Path, "/")
	if len(parts) >= 4 && parts[1] == "api" && parts[2] == "todos" {
		parts[3] = ":id"
	}
	return strings.Join(parts, "/")
}

func callerIdentity(c *gin.Context) string {
	if id, ok := c.Get("x-user-id"); ok {
		return fmt.Sprintf("user_%v", id)
	}
	return GetClientIP(c)
}

// SetPolicy overrides the limit for "METHOD /route", or the fallback when
// route is "*".
func (rl *RateLimiter) SetPolicy(route string, policy LimitPolicy) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.policies[route] = policy
}

func (rl *RateLimiter) Stats() map[string]int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]int{
		"active_buckets": rl.buckets.ItemCount(),
		"policies":       len(rl.policies),
	}
}
