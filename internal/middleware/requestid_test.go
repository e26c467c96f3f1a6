package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// idRouter echoes the id as seen by each consumer: gin context, request
// context and the logger's context attributes.
func idRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	if mw != nil {
		r.Use(mw)
	}
	r.GET("/id", func(c *gin.Context) {
		logged := ""
		for _, a := range logger.FromContext(c.Request.Context()) {
			if a.Key == "request_id" {
				logged = a.Value.String()
			}
		}
		c.String(http.StatusOK, "%s|%s|%s", GetRequestID(c), RequestIDFromContext(c.Request.Context()), logged)
	})
	return r
}

func getID(r *gin.Engine, upstream string) (header string, seen []string) {
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	if upstream != "" {
		req.Header.Set(requestIDHeader, upstream)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header().Get(requestIDHeader), strings.Split(w.Body.String(), "|")
}

func TestRequestID_Upstream(t *testing.T) {
	tests := []struct {
		name     string
		trust    bool
		upstream string
		reused   bool
	}{
		{"no upstream", true, "", false},
		{"untrusted", false, "proxy-abc-1", false},
		{"trusted", true, "proxy-abc-1", true},
		{"trusted at 64 chars", true, strings.Repeat("f", 64), true},
		{"too long", true, strings.Repeat("f", 65), false},
		{"bad charset", true, "proxy_abc", false},
		{"header injection", true, "abc\r\nX-Evil: 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, seen := getID(idRouter(RequestIDWithConfig(RequestIDConfig{TrustUpstream: tt.trust})), tt.upstream)

			if len(seen) != 3 {
				t.Fatalf("body parts = %v", seen)
			}
			for i, id := range seen {
				if id != header {
					t.Errorf("consumer %d saw %q, header %q", i, id, header)
				}
			}
			if tt.reused {
				if header != tt.upstream {
					t.Errorf("id = %q; want upstream %q", header, tt.upstream)
				}
				return
			}
			if _, err := uuid.Parse(header); err != nil {
				t.Errorf("generated id %q is not a uuid: %v", header, err)
			}
		})
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	r := idRouter(RequestID())
	seen := make(map[string]bool)
	for range 50 {
		id, _ := getID(r, "")
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestRequestID_AbsentWithoutMiddleware(t *testing.T) {
	header, seen := getID(idRouter(nil), "")
	if header != "" {
		t.Errorf("header = %q; want empty", header)
	}
	for i, id := range seen {
		if id != "" {
			t.Errorf("consumer %d saw %q; want empty", i, id)
		}
	}

	if RequestIDFromContext(context.Background()) != "" {
		t.Error("RequestIDFromContext(background) not empty")
	}
	//nolint:staticcheck // nil context is part of the contract
	if RequestIDFromContext(nil) != "" {
		t.Error("RequestIDFromContext(nil) not empty")
	}
}
