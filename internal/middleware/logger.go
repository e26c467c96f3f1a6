package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// quietPrefixes are request paths whose successful requests are logged at
// debug level: asset fetches and health checks would otherwise drown the
// console's page and htmx traffic.
var quietPrefixes = []string{"/static/", "/health", "/favicon.ico"}

// Logger returns a gin middleware that logs one record per request with the
// method, path, status, latency and client IP. Records are written with the
// request context so the request_id attached by RequestID is included.
//
// Level follows the status: 5xx Error, 4xx Warn, otherwise Info (Debug for
// quiet paths). htmx requests also carry htmx=true and the hx_target id, and
// a query string is logged when the list state is part of the URL.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		path := c.Request.URL.Path
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, slog.String("query", q))
		}
		if IsHTMX(c) {
			attrs = append(attrs,
				slog.Bool("htmx", true),
				slog.String("hx_target", c.GetHeader("HX-Target")),
			)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		logger.LogAttrs(c.Request.Context(), requestLevel(path, status), "request", attrs...)
	}
}

func requestLevel(path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return slog.LevelDebug
		}
	}
	return slog.LevelInfo
}
