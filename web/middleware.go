package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skekre98/hostkit/httpclient"
)

type Handler = gin.HandlerFunc
type Router = gin.IRouter

// RequestIDKey is the gin context key holding the request ID.
const RequestIDKey = "request_id"

const defaultShutdownTimeout = 10 * time.Second

// RequestID propagates the caller's X-Request-ID or generates one.
func RequestID() Handler {
	return func(c *gin.Context) {
		id := c.GetHeader(httpclient.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(httpclient.RequestIDHeader, id)
		c.Set(RequestIDKey, id)
		c.Next()
	}
}

// AccessLog writes one structured line per completed request.
func AccessLog(l *slog.Logger) Handler {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Info("http_access",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"req_id", c.GetString(RequestIDKey),
		)
	}
}

// RecoveryProblem turns a panic into an RFC 7807 problem+json 500.
func RecoveryProblem(l *slog.Logger) Handler {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic", "error", rec, "req_id", c.GetString(RequestIDKey))
				c.Header("Content-Type", "application/problem+json")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"type":   "about:blank",
					"title":  "Internal Server Error",
					"status": http.StatusInternalServerError,
					"detail": "unexpected server error",
				})
			}
		}()
		c.Next()
	}
}
