package middleware

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

var upstreamIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

type requestIDKey struct{}

// RequestIDConfig controls whether an inbound X-Request-ID is honored.
type RequestIDConfig struct {
	// TrustUpstream reuses a well-formed X-Request-ID from a fronting proxy.
	TrustUpstream bool
}

// RequestID tags every request with a fresh id.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig tags every request with an id, published three ways:
// the gin context key "request_id", the X-Request-ID response header and the
// request context. The request context copy feeds both log records and the
// header forwarded on backend calls.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if cfg.TrustUpstream {
			if in := c.GetHeader(requestIDHeader); upstreamIDPattern.MatchString(in) {
				id = in
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)

		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, id)
		ctx = logger.WithContextAttrs(ctx, slog.String(requestIDContextKey, id))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "" when the
// middleware did not run.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}

// RequestIDFromContext is GetRequestID for code that only holds a
// context.Context, such as the backend client.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
