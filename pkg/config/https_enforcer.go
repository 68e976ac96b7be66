package config

import (
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPSEnforcer redirects plain HTTP requests to https on the same host.
// TLS terminated by a proxy is recognised through X-Forwarded-Proto, and
// loopback hosts are never redirected.
type HTTPSEnforcer struct {
	enabled atomic.Bool
	logger  *zap.Logger
}

func NewHTTPSEnforcer(enabled bool, logger *zap.Logger) *HTTPSEnforcer {
	he := &HTTPSEnforcer{logger: logger}
	he.enabled.Store(enabled)
	return he
}

func (he *HTTPSEnforcer) HTTPSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !he.enabled.Load() || isSecure(c.Request) || isLoopback(c.Request.Host) {
			c.Next()
			return
		}

		target := "https://" + c.Request.Host + c.Request.URL.RequestURI()

		// 308 keeps the method and body of writes; GET and HEAD get the classic 301.
		status := http.StatusPermanentRedirect
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			status = http.StatusMovedPermanently
		}

		he.logger.Info("Redirecting to HTTPS",
			zap.String("method", c.Request.Method),
			zap.String("target", target))

		c.Redirect(status, target)
		c.Abort()
	}
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

func isLoopback(hostport string) bool {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = hostport
	}

	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (he *HTTPSEnforcer) SetEnabled(enabled bool) {
	he.enabled.Store(enabled)
}

func (he *HTTPSEnforcer) IsEnabled() bool {
	return he.enabled.Load()
}
