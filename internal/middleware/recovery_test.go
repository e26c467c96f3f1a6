package middleware

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func panicRouter(log *slog.Logger, withTemplates bool) (*gin.Engine, *bool) {
	r := gin.New()
	if withTemplates {
		r.SetHTMLTemplate(template.Must(template.New("errors/500.html").Parse(`500 ref={{ .RequestID }}`)))
	}
	r.Use(RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}), Recovery(log))

	reached := false
	r.GET("/brands", func(c *gin.Context) { c.String(http.StatusOK, "list") })
	r.DELETE("/brands/:id", func(c *gin.Context) {
		panic("nil record")
	}, func(c *gin.Context) {
		reached = true
	})
	return r, &reached
}

func TestRecovery_PassesThrough(t *testing.T) {
	var buf bytes.Buffer
	r, _ := panicRouter(newTestLogger(&buf), false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/brands", nil))

	if w.Code != http.StatusOK || w.Body.String() != "list" {
		t.Errorf("response = %d %q", w.Code, w.Body.String())
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output:\n%s", buf.String())
	}
}

func TestRecovery_Responses(t *testing.T) {
	tests := []struct {
		name      string
		accept    string
		htmx      bool
		templates bool
		check     func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name: "json by default",
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var body map[string]any
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v (%s)", err, w.Body.String())
				}
				if body["code"] != float64(500) || body["message"] != "internal server error" {
					t.Errorf("body = %v", body)
				}
				if v, ok := body["data"]; !ok || v != nil {
					t.Errorf("data = %v, present %t; want null", v, ok)
				}
			},
		},
		{
			name:   "html without renderer",
			accept: "text/html,application/xhtml+xml",
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Body.String() != "500 Internal Server Error" {
					t.Errorf("body = %q", w.Body.String())
				}
			},
		},
		{
			name:      "html page carries request id",
			accept:    "text/html",
			templates: true,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Body.String() != "500 ref=req-panic-1" {
					t.Errorf("body = %q", w.Body.String())
				}
			},
		},
		{
			name:   "htmx keeps the page",
			accept: "text/html",
			htmx:   true,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Header().Get("HX-Reswap") != "none" {
					t.Error("missing HX-Reswap: none")
				}
				var trigger map[string]map[string]string
				if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &trigger); err != nil {
					t.Fatalf("decode HX-Trigger: %v", err)
				}
				if trigger["showToast"]["type"] != ToastError || trigger["showToast"]["message"] != panicToast {
					t.Errorf("toast = %v", trigger["showToast"])
				}
				if w.Body.Len() != 0 {
					t.Errorf("body = %q; want empty", w.Body.String())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r, reached := panicRouter(newTestLogger(&buf), tt.templates)

			req := httptest.NewRequest(http.MethodDelete, "/brands/9", nil)
			req.Header.Set("X-Request-ID", "req-panic-1")
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d; want 500", w.Code)
			}
			if *reached {
				t.Error("handler after the panic ran")
			}
			tt.check(t, w)

			out := buf.String()
			for _, want := range []string{"panic recovered", "nil record", "path=/brands/9", "stack="} {
				if !strings.Contains(out, want) {
					t.Errorf("log missing %q:\n%s", want, out)
				}
			}
		})
	}
}
