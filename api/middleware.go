package api

import (
	"net/http"
	"time"

	"github.com/cognifood/shelf-life-api/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	corsMaxAge       = "600"
)

// CORS allows browser requests from the listed origins with credentials. Any method
// and any request header are permitted. "*" in origins allows every origin.
func CORS(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		_, ok := allowed[origin]
		ok = ok || allowAll
		requestMethod := c.GetHeader("Access-Control-Request-Method")
		preflight := c.Request.Method == http.MethodOptions && requestMethod != ""

		if !ok {
			if preflight {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "disallowed CORS origin"})
				return
			}
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Add("Vary", "Origin")

		if preflight {
			// every method is allowed, so the requested one is echoed back
			c.Header("Access-Control-Allow-Methods", requestMethod)
			if h := c.GetHeader("Access-Control-Request-Headers"); h != "" {
				c.Header("Access-Control-Allow-Headers", h)
			}
			c.Header("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID reuses the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger writes one log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		l := logger.Get()
		ev := l.Info()
		if status >= http.StatusInternalServerError {
			ev = l.Error()
		} else if status >= http.StatusBadRequest {
			ev = l.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str(requestIDKey, c.GetString(requestIDKey)).
			Msg("request")
	}
}
