package config

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"todotracker/internal/core/telemetry"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type RateLimiterSuite struct {
	suite.Suite
	limiter  *RateLimiter
	registry *prometheus.Registry
	router   *gin.Engine
}

func (s *RateLimiterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.registry = prometheus.NewRegistry()
	s.limiter = NewRateLimiter(zap.NewNop(), telemetry.NewAppMetrics(s.registry))

	s.router = gin.New()
	s.router.POST("/api/auth/login", s.limiter.RateLimitMiddleware(), ok)

	todos := s.router.Group("/api", asUser(42), s.limiter.RateLimitMiddleware())
	todos.GET("/todos", ok)
	todos.POST("/todos", ok)
	todos.PUT("/todos/:id", ok)
	todos.DELETE("/todos/:id", ok)
	todos.GET("/push/status", ok)
}

func TestRateLimiterSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(RateLimiterSuite))
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func asUser(id int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("x-user-id", id)
		c.Next()
	}
}

func (s *RateLimiterSuite) send(method, path, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(`{}`))
	req.Header.Set("X-Forwarded-For", ip)
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RateLimiterSuite) TestRouteLimits() {
	cases := []struct {
		method, path string
		limit        int
	}{
		{"POST", "/api/auth/login", 10},
		{"GET", "/api/todos", 100},
		{"POST", "/api/todos", 20},
		{"PUT", "/api/todos/7", 30},
		{"DELETE", "/api/todos/7", 10},
		{"GET", "/api/push/status", 60},
	}

	for _, tc := range cases {
		first := s.send(tc.method, tc.path, "10.0.0.1")
		second := s.send(tc.method, tc.path, "10.0.0.1")

		Expect(first.Header().Get("X-RateLimit-Limit")).To(Equal(strconv.Itoa(tc.limit)), tc.method+" "+tc.path)
		Expect(first.Header().Get("X-RateLimit-Remaining")).To(Equal(strconv.Itoa(tc.limit - 1)))
		Expect(second.Header().Get("X-RateLimit-Remaining")).To(Equal(strconv.Itoa(tc.limit - 2)))
	}
}

func (s *RateLimiterSuite) TestLoginIsLimitedPerIP() {
	for range 10 {
		Expect(s.send("POST", "/api/auth/login", "10.0.0.1").Code).To(Equal(http.StatusOK))
	}

	blocked := s.send("POST", "/api/auth/login", "10.0.0.1")
	Expect(blocked.Code).To(Equal(http.StatusTooManyRequests))
	Expect(blocked.Header().Get("Retry-After")).ToNot(BeEmpty())
	Expect(blocked.Body.String()).To(ContainSubstring(`"code":"RATE_LIMITED"`))
	Expect(blocked.Body.String()).To(ContainSubstring("Too many requests. Limit: 10 per 1m0s"))

	Expect(s.send("POST", "/api/auth/login", "10.0.0.2").Code).To(Equal(http.StatusOK))

	series, err := testutil.GatherAndCount(s.registry, "rate_limit_hits_total")
	Expect(err).ToNot(HaveOccurred())
	Expect(series).To(Equal(1))
}

func (s *RateLimiterSuite) TestTodoIDsShareOneBucket() {
	Expect(s.send("DELETE", "/api/todos/1", "10.0.0.1").Header().Get("X-RateLimit-Remaining")).To(Equal("9"))
	Expect(s.send("DELETE", "/api/todos/2", "10.0.0.1").Header().Get("X-RateLimit-Remaining")).To(Equal("8"))
}

func (s *RateLimiterSuite) TestUserKeyIgnoresIP() {
	Expect(s.send("POST", "/api/todos", "10.0.0.1").Header().Get("X-RateLimit-Remaining")).To(Equal("19"))
	Expect(s.send("POST", "/api/todos", "10.0.0.2").Header().Get("X-RateLimit-Remaining")).To(Equal("18"))
}

func (s *RateLimiterSuite) TestBucketRefillsAfterWindow() {
	s.limiter.SetPolicy("GET /api/todos", LimitPolicy{Requests: 2, Window: 50 * time.Millisecond, Identify: callerIdentity})

	Expect(s.send("GET", "/api/todos", "10.0.0.1").Code).To(Equal(http.StatusOK))
	Expect(s.send("GET", "/api/todos", "10.0.0.1").Code).To(Equal(http.StatusOK))
	Expect(s.send("GET", "/api/todos", "10.0.0.1").Code).To(Equal(http.StatusTooManyRequests))

	Eventually(func() int {
		return s.send("GET", "/api/todos", "10.0.0.1").Code
	}, time.Second, 20*time.Millisecond).Should(Equal(http.StatusOK))
}

func (s *RateLimiterSuite) TestConcurrentRequestsCountOnce() {
	var wg sync.WaitGroup
	var mu sync.Mutex
	remaining := []int{}

	for range 8 {
		wg.Go(func() {
			n, _ := strconv.Atoi(s.send("POST", "/api/todos", "10.0.0.1").Header().Get("X-RateLimit-Remaining"))
			mu.Lock()
			remaining = append(remaining, n)
			mu.Unlock()
		})
	}
	wg.Wait()

	sort.Ints(remaining)
	Expect(remaining).To(Equal([]int{12, 13, 14, 15, 16, 17, 18, 19}))
}

func (s *RateLimiterSuite) TestStats() {
	s.send("GET", "/api/todos", "10.0.0.1")
	s.send("POST", "/api/auth/login", "10.0.0.1")

	stats := s.limiter.Stats()
	Expect(stats["active_buckets"]).To(Equal(2))
	Expect(stats["policies"]).To(Equal(10))
}
