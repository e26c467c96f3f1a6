package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
)

func consoleRouter(log *slog.Logger, requestID gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(requestID, Logger(log))

	r.GET("/brands", func(c *gin.Context) { c.String(http.StatusOK, "list") })
	r.POST("/brands", func(c *gin.Context) { c.String(http.StatusCreated, "created") })
	r.GET("/widgets", func(c *gin.Context) { c.String(http.StatusNotFound, "no such resource") })
	r.GET("/products", func(c *gin.Context) {
		_ = c.Error(errors.New("backend unavailable"))
		c.String(http.StatusBadGateway, "backend down")
	})
	r.GET("/static/css/app.css", func(c *gin.Context) { c.String(http.StatusOK, "body{}") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		wantLevel string
	}{
		{"page", http.MethodGet, "/brands?page=2", "level=INFO"},
		{"create", http.MethodPost, "/brands", "level=INFO"},
		{"unknown resource", http.MethodGet, "/widgets", "level=WARN"},
		{"backend failure", http.MethodGet, "/products", "level=ERROR"},
		{"static asset", http.MethodGet, "/static/css/app.css", "level=DEBUG"},
		{"health check", http.MethodGet, "/health", "level=DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := consoleRouter(newTestLogger(&buf), RequestID())

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.path, nil))

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) || !strings.Contains(out, "msg=request") {
				t.Errorf("log = %q; want %s request record", out, tt.wantLevel)
			}
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	r := consoleRouter(newTestLogger(&buf), RequestID())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brands?search=acme&page=2", nil))

	out := buf.String()
	for _, field := range []string{"method=GET", "path=/brands", "status=200", "latency=", "client_ip=", `query="search=acme&page=2"`} {
		if !strings.Contains(out, field) {
			t.Errorf("log missing %q:\n%s", field, out)
		}
	}
	if strings.Contains(out, "htmx=") {
		t.Errorf("plain request logged htmx attributes:\n%s", out)
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products", nil))
	if !strings.Contains(buf.String(), "backend unavailable") {
		t.Errorf("handler errors not logged:\n%s", buf.String())
	}
}

func TestLogger_HTMXAttributes(t *testing.T) {
	var buf bytes.Buffer
	r := consoleRouter(newTestLogger(&buf), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/brands?search=ac", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "list-region")
	r.ServeHTTP(httptest.NewRecorder(), req)

	for _, field := range []string{"htmx=true", "hx_target=list-region"} {
		if !strings.Contains(buf.String(), field) {
			t.Errorf("log missing %q:\n%s", field, buf.String())
		}
	}
}

func TestLogger_NilUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(newTestLogger(&buf))
	defer slog.SetDefault(prev)

	r := consoleRouter(nil, RequestID())
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brands", nil))

	if !strings.Contains(buf.String(), "path=/brands") {
		t.Errorf("default logger not used:\n%s", buf.String())
	}
}

func TestLogger_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(
		logger.WithConsoleWriter(&buf),
		logger.WithConsoleFormat(logger.FormatText),
		logger.WithConsoleColor(false),
		logger.WithLevel(slog.LevelDebug),
		logger.WithMiddleware(logger.ContextMiddleware()),
	)
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	defer log.Close()

	r := consoleRouter(log.Logger, RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))

	req := httptest.NewRequest(http.MethodGet, "/brands", nil)
	req.Header.Set("X-Request-ID", "console-req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "console-req-42") {
		t.Errorf("log missing request id:\n%s", buf.String())
	}
}
