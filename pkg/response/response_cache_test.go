package response

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todotracker/internal/core/telemetry"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func newCachedRouter(rc *ResponseCache, calls *int, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("x-user-id", userID)
		c.Next()
	})
	router.Use(rc.CacheMiddleware())

	router.GET("/api/tags/suggest", func(c *gin.Context) {
		*calls++
		if c.Query("search") == "fail" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": []string{c.Query("search")}})
	})
	router.GET("/api/todos", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
	})

	return router
}

func get(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestCacheMiddleware_CachesSuggestionsPerUser(t *testing.T) {
	RegisterTestingT(t)

	rc := NewResponseCache(zap.NewNop(), telemetry.NewAppMetrics(prometheus.NewRegistry()))
	calls := 0
	alice := newCachedRouter(rc, &calls, 1)
	bob := newCachedRouter(rc, &calls, 2)

	first := get(alice, "/api/tags/suggest?search=wo")
	Expect(first.Code).To(Equal(http.StatusOK))
	Expect(first.Header().Get("X-Cache")).To(Equal("MISS"))

	second := get(alice, "/api/tags/suggest?search=wo")
	Expect(second.Code).To(Equal(http.StatusOK))
	Expect(second.Header().Get("X-Cache")).To(Equal("HIT"))
	Expect(second.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
	Expect(second.Body.String()).To(Equal(first.Body.String()))
	Expect(calls).To(Equal(1))

	Expect(get(bob, "/api/tags/suggest?search=wo").Header().Get("X-Cache")).To(Equal("MISS"))
	Expect(get(alice, "/api/tags/suggest?search=w").Header().Get("X-Cache")).To(Equal("MISS"))
	Expect(calls).To(Equal(3))

	rc.InvalidateCache(1)
	Expect(get(alice, "/api/tags/suggest?search=wo").Header().Get("X-Cache")).To(Equal("MISS"))
	Expect(get(bob, "/api/tags/suggest?search=wo").Header().Get("X-Cache")).To(Equal("HIT"))
	Expect(calls).To(Equal(4))
}

func TestCacheMiddleware_SkipsErrorsAndUnconfiguredPaths(t *testing.T) {
	RegisterTestingT(t)

	rc := NewResponseCache(zap.NewNop(), nil)
	calls := 0
	router := newCachedRouter(rc, &calls, 1)

	get(router, "/api/tags/suggest?search=fail")
	get(router, "/api/tags/suggest?search=fail")
	Expect(calls).To(Equal(2))

	get(router, "/api/todos")
	w := get(router, "/api/todos")
	Expect(w.Header().Get("X-Cache")).To(BeEmpty())
	Expect(calls).To(Equal(4))

	Expect(rc.Size()).To(Equal(0))

	rc.CacheRoute("/api/todos", time.Minute)
	get(router, "/api/todos")
	Expect(get(router, "/api/todos").Header().Get("X-Cache")).To(Equal("HIT"))
	Expect(calls).To(Equal(5))
	Expect(rc.Size()).To(Equal(1))
}
