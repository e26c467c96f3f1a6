package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func bodyLimitRouter(n int64) *gin.Engine {
	r := gin.New()
	r.Use(BodyLimit(func(*gin.Context) int64 { return n }))
	echo := func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if IsBodyTooLarge(err) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "%d", len(b))
	}
	r.GET("/brands", echo)
	r.POST("/brands", echo)
	return r
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name       string
		limit      int64
		method     string
		size       int
		streamed   bool
		htmx       bool
		wantStatus int
	}{
		{"within limit", 16, http.MethodPost, 16, false, false, http.StatusOK},
		{"declared length over limit", 16, http.MethodPost, 17, false, false, http.StatusRequestEntityTooLarge},
		{"streamed over limit", 16, http.MethodPost, 17, true, false, http.StatusRequestEntityTooLarge},
		{"htmx over limit", 16, http.MethodPost, 17, false, true, http.StatusRequestEntityTooLarge},
		{"no limit", 0, http.MethodPost, 64, false, false, http.StatusOK},
		{"safe method untouched", 16, http.MethodGet, 64, false, false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/brands", strings.NewReader(strings.Repeat("x", tt.size)))
			if tt.streamed {
				req.ContentLength = -1
			}
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			w := httptest.NewRecorder()
			bodyLimitRouter(tt.limit).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d; want %d", w.Code, tt.wantStatus)
			}
			if tt.htmx {
				if w.Header().Get("HX-Reswap") != "none" || !strings.Contains(w.Header().Get("HX-Trigger"), "too large") {
					t.Errorf("htmx headers = %v", w.Header())
				}
			}
		})
	}
}
