package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/middleware"
	"github.com/mahabub-bd/purepac-admin/internal/pkg"
	"github.com/mahabub-bd/purepac-admin/web"
)

// Pinger reports whether a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouteDeps is what RegisterRoutes needs from the assembled App.
type RouteDeps struct {
	Modules    []Module
	DB         *gorm.DB
	Backend    Pinger
	Mode       string // "debug" or "release"
	CSRFSecret string
	// BodyLimit sizes the body cap of page mutations; nil leaves bodies
	// uncapped.
	BodyLimit func(c *gin.Context) int64
	// Metrics is served at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string
}

// RegisterRoutes mounts static assets, /health, the optional metrics endpoint
// and every module's API and page routes.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if strings.TrimSpace(deps.CSRFSecret) == "" {
		return errors.New("csrf secret is required")
	}

	if err := registerStatic(r, deps.Mode); err != nil {
		return fmt.Errorf("register static routes: %w", err)
	}

	r.GET("/health", healthHandler(deps.DB, deps.Backend))

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.Metrics))
	}

	// JSON clients authenticate upstream of the console; only the htmx pages
	// carry the double-submit token. The body cap goes first because the
	// token check may parse the whole form.
	api := r.Group("/api/v1")
	var pageChain []gin.HandlerFunc
	if deps.BodyLimit != nil {
		pageChain = append(pageChain, middleware.BodyLimit(deps.BodyLimit))
	}
	pageChain = append(pageChain, middleware.CSRF(deps.CSRFSecret))
	pages := r.Group("/", pageChain...)

	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api, pages)
	}

	r.NoRoute(noRouteHandler())

	return nil
}

const (
	statusOK    = "ok"
	statusError = "error"
)

// healthHandler pings the database and the backend and reports both. Either
// failing degrades the service.
func healthHandler(db *gorm.DB, backend Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		components := gin.H{
			"database": pingDatabase(ctx, db),
			"backend":  pingBackend(ctx, backend),
		}

		status, code := statusOK, http.StatusOK
		for _, v := range components {
			if v != statusOK {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":     status,
			"components": components,
		})
	}
}

func pingDatabase(ctx context.Context, db *gorm.DB) string {
	if db == nil {
		return statusError
	}
	sqlDB, err := db.DB()
	if err != nil {
		return statusError
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return statusError
	}
	return statusOK
}

func pingBackend(ctx context.Context, backend Pinger) string {
	if backend == nil {
		return statusError
	}
	if err := backend.Ping(ctx); err != nil {
		return statusError
	}
	return statusOK
}

// noRouteHandler answers unknown /api/ paths in the API envelope and
// everything else through renderError.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			pkg.Error(c, domain.ErrNotFound)
			return
		}
		renderError(c, http.StatusNotFound, "not found")
	}
}

// registerStatic serves web/static under /static. Debug mode reads the
// working tree so asset edits need no rebuild; release mode serves the
// embedded copy with a one-day cache lifetime.
func registerStatic(r *gin.Engine, mode string) error {
	root := fs.FS(web.EmbeddedFS)
	if mode == gin.DebugMode {
		var err error
		if root, err = resolveDebugWebFS(); err != nil {
			return err
		}
	}
	static, err := fs.Sub(root, "static")
	if err != nil {
		return fmt.Errorf("static sub filesystem: %w", err)
	}
	r.GET("/static/*filepath", staticHandler(static, mode != gin.DebugMode))
	return nil
}

func staticHandler(fsys fs.FS, cache bool) gin.HandlerFunc {
	files := http.StripPrefix("/static", http.FileServerFS(fsys))
	return func(c *gin.Context) {
		if cache {
			c.Header("Cache-Control", "public, max-age=86400")
		}
		files.ServeHTTP(c.Writer, c.Request)
	}
}
