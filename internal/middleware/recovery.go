package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
)

const panicToast = "Something went wrong. Please try again."

// Recovery returns a gin middleware that recovers from panics, logs the panic
// value with its stack and answers in the shape the client expects:
//
//   - htmx requests keep the current page (HX-Reswap: none) and get an error toast
//   - requests accepting text/html get errors/500.html with the request id
//   - everything else gets {"code": 500, "message": "internal server error", "data": null}
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", rec),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)

			switch {
			case IsHTMX(c):
				c.Header("HX-Reswap", "none")
				SetToast(c, panicToast, ToastError)
				c.AbortWithStatus(http.StatusInternalServerError)
			case acceptsHTML(c):
				c.Abort()
				renderHTMLError(c)
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    http.StatusInternalServerError,
					"message": "internal server error",
					"data":    nil,
				})
			}
		}()
		c.Next()
	}
}

// renderHTMLError renders errors/500.html, falling back to plain text when no
// renderer is configured or rendering itself panics.
func renderHTMLError(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{
		"Code":      http.StatusInternalServerError,
		"RequestID": GetRequestID(c),
	})
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}
