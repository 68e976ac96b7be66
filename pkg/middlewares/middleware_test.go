package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todotracker/internal/core/telemetry"
	"todotracker/pkg/config"
	ct "todotracker/pkg/context"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetupGinMiddleware(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.InfoLevel)
	logger := config.NewLokiLoggerFromZap(zap.New(core), "todotracker", "")

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewAppMetrics(registry)

	cfg := config.GetDefaultConfig()
	cfg.RateLimitEnabled = false
	cfg.CacheEnabled = false

	router := gin.New()
	SetupGinMiddlewareWithConfig(router, metrics, logger, cfg)

	group := NewGroupMiddleware(metrics, logger, cfg)
	Expect(group.Cache).To(BeNil())

	var seenRequestID string
	router.GET("/api/db-health", group.RateLimit, group.Cached(), func(c *gin.Context) {
		seenRequestID = ct.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/db-health", nil)
	req.Header.Set("X-Request-ID", "req-1")
	router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Header().Get("X-Request-ID")).To(Equal("req-1"))
	Expect(seenRequestID).To(Equal("req-1"))

	entries := logs.FilterMessage("HTTP Request").All()
	Expect(entries).To(HaveLen(1))
	Expect(entries[0].ContextMap()).To(HaveKeyWithValue("request_id", "req-1"))
	Expect(entries[0].ContextMap()).To(HaveKeyWithValue("status", int64(200)))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/missing", nil)
	router.ServeHTTP(w, req)
	Expect(w.Header().Get("X-Request-ID")).ToNot(BeEmpty())

	expected := `
# HELP http_requests_total HTTP requests by route and status
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/api/db-health",status="200"} 1
http_requests_total{method="GET",path="unmatched",status="404"} 1
`
	Expect(testutil.GatherAndCompare(registry, strings.NewReader(expected), "http_requests_total")).To(Succeed())
}
